package core

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yishu-dev/yishu/pkg/models"
	"gopkg.in/yaml.v3"
)

// SessionState is the state of the interview machine.
type SessionState string

const (
	StateNoSession SessionState = "no_session"
	StateActive    SessionState = "active"
	StatePaused    SessionState = "paused"
	StateCompleted SessionState = "completed"
)

// Outcome classifies what a mutating session operation did.
type Outcome int

const (
	// OutcomeApplied means the session changed and was persisted.
	OutcomeApplied Outcome = iota
	// OutcomeNoSession means there is no session to operate on.
	OutcomeNoSession
	// OutcomeBlocked means a precondition was not met (for example a
	// required question is still unanswered).
	OutcomeBlocked
	// OutcomePaused means the session is paused and must be continued first.
	OutcomePaused
	// OutcomeCompleted means the interview is finished; only Reset applies.
	OutcomeCompleted
	// OutcomeUnchanged means the operation was valid but had nothing to do.
	OutcomeUnchanged
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeNoSession:
		return "no_session"
	case OutcomeBlocked:
		return "blocked"
	case OutcomePaused:
		return "paused"
	case OutcomeCompleted:
		return "completed"
	case OutcomeUnchanged:
		return "unchanged"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is returned by every mutating session operation in place of a bare
// boolean so callers can tell "nothing to do" from "not allowed".
type Result struct {
	Outcome Outcome
	Reason  string
	// Finished is set when this call moved the interview into the
	// completed state.
	Finished bool
}

// Applied reports whether the operation changed the session.
func (r Result) Applied() bool {
	return r.Outcome == OutcomeApplied
}

func (r Result) String() string {
	if r.Reason == "" {
		return r.Outcome.String()
	}
	return r.Outcome.String() + ": " + r.Reason
}

// AnswerOpts holds the optional references attached to an answer.
type AnswerOpts struct {
	AudioRef    string
	Attachments []string
}

// InterviewManager owns the single active interview session. All methods are
// safe for concurrent use; mutation and the following persistence happen
// under one lock.
type InterviewManager interface {
	Start(userID string) *models.Session
	Resume(snapshot *models.Session) Result
	Continue() Result
	Load() SessionState
	SaveAnswer(questionID, content string, opts AnswerOpts) Result
	NextQuestion() Result
	PreviousQuestion() Result
	AdvanceStage() Result
	JumpToStage(stage models.Stage) Result
	Pause() Result
	Reset() Result

	State() SessionState
	Session() *models.Session
	Progress() models.Progress
	CurrentQuestions() []models.Question
	CurrentQuestion() (models.Question, bool)
	CurrentStageInfo() (models.StageInfo, bool)
	Answer(questionID string) (models.Answer, bool)
	Answers() []models.Answer
	IsQuestionAnswered(questionID string) bool
	StageIsComplete() bool
	CanAdvanceQuestion() bool
	CurrentStageProgress() int
	Catalog() QuestionCatalog
}

type interviewManager struct {
	mu       sync.Mutex
	catalog  QuestionCatalog
	store    SnapshotStore
	logger   EventLogger
	now      func() time.Time
	newID    func() string
	session  *models.Session
	progress models.Progress
}

// NewInterviewManager creates an InterviewManager in the NoSession state.
// store and logger may be nil, in which case the session lives only in
// memory and nothing is logged.
func NewInterviewManager(catalog QuestionCatalog, store SnapshotStore, logger EventLogger) InterviewManager {
	m := &interviewManager{
		catalog: catalog,
		store:   store,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
	m.progress = m.computeProgress()
	return m
}

// --- Lifecycle ---

// Start begins a new session for userID, replacing any existing one.
func (m *interviewManager) Start(userID string) *models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.session = &models.Session{
		ID:           m.newID(),
		UserID:       userID,
		CurrentStage: m.catalog.FirstStage(),
		Answers:      []models.Answer{},
		StartTime:    now,
		LastUpdate:   now,
		Status:       models.SessionActive,
	}
	m.commit()

	logEvent(m.logger, "session.started", map[string]any{
		"session_id": m.session.ID,
		"user_id":    userID,
		"stage":      string(m.session.CurrentStage),
	})
	return m.session.Clone()
}

// Resume replaces the in-memory session with snapshot. A snapshot that was
// already completed stays completed; anything else becomes active.
func (m *interviewManager) Resume(snapshot *models.Session) Result {
	if snapshot == nil {
		return Result{Outcome: OutcomeNoSession, Reason: "no snapshot to resume"}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	s := snapshot.Clone()
	m.normalize(s)
	if s.Status != models.SessionCompleted {
		s.Status = models.SessionActive
	}
	m.session = s
	m.commit()

	logEvent(m.logger, "session.resumed", map[string]any{
		"session_id": s.ID,
		"stage":      string(s.CurrentStage),
		"status":     string(s.Status),
	})
	return Result{Outcome: OutcomeApplied}
}

// Continue moves a paused session back to active.
func (m *interviewManager) Continue() Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.stateLocked() {
	case StateNoSession:
		return Result{Outcome: OutcomeNoSession}
	case StateCompleted:
		return Result{Outcome: OutcomeCompleted, Reason: "interview already completed"}
	case StateActive:
		return Result{Outcome: OutcomeUnchanged, Reason: "session is already active"}
	}

	m.session.Status = models.SessionActive
	m.session.LastUpdate = m.now()
	m.commit()
	logEvent(m.logger, "session.resumed", map[string]any{
		"session_id": m.session.ID,
		"stage":      string(m.session.CurrentStage),
		"status":     string(m.session.Status),
	})
	return Result{Outcome: OutcomeApplied}
}

// Load restores the persisted snapshot. A missing or unreadable snapshot is
// logged and leaves the machine without a session.
func (m *interviewManager) Load() SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.session = nil
	m.progress = m.computeProgress()
	if m.store == nil {
		return StateNoSession
	}

	data, found, err := m.store.Get(SessionSnapshotKey)
	if err != nil {
		logEvent(m.logger, "persistence.load_failed", map[string]any{
			"key":   SessionSnapshotKey,
			"error": err.Error(),
		})
		return StateNoSession
	}
	if !found || len(data) == 0 {
		return StateNoSession
	}

	var s models.Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		logEvent(m.logger, "persistence.load_failed", map[string]any{
			"key":   SessionSnapshotKey,
			"error": fmt.Sprintf("decoding snapshot: %v", err),
		})
		return StateNoSession
	}
	if s.ID == "" {
		logEvent(m.logger, "persistence.load_failed", map[string]any{
			"key":   SessionSnapshotKey,
			"error": "snapshot has no session id",
		})
		return StateNoSession
	}

	m.normalize(&s)
	m.session = &s
	m.progress = m.computeProgress()
	return m.stateLocked()
}

// Pause marks the interview inactive without clearing anything.
func (m *interviewManager) Pause() Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.stateLocked() {
	case StateNoSession:
		return Result{Outcome: OutcomeNoSession}
	case StateCompleted:
		return Result{Outcome: OutcomeCompleted, Reason: "interview already completed"}
	case StatePaused:
		return Result{Outcome: OutcomeUnchanged, Reason: "session is already paused"}
	}

	m.session.Status = models.SessionPaused
	m.session.LastUpdate = m.now()
	m.commit()
	logEvent(m.logger, "session.paused", map[string]any{"session_id": m.session.ID})
	return Result{Outcome: OutcomeApplied}
}

// Reset discards the session in memory and in the store.
func (m *interviewManager) Reset() Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	var id string
	if m.session != nil {
		id = m.session.ID
	}
	m.session = nil
	m.progress = m.computeProgress()

	if m.store != nil {
		for _, key := range []string{SessionSnapshotKey, ProgressSnapshotKey} {
			if err := m.store.Remove(key); err != nil {
				logEvent(m.logger, "persistence.save_failed", map[string]any{
					"key":   key,
					"error": fmt.Sprintf("removing snapshot: %v", err),
				})
			}
		}
	}

	logEvent(m.logger, "session.reset", map[string]any{"session_id": id})
	return Result{Outcome: OutcomeApplied}
}

// --- Mutations ---

// SaveAnswer stores content as the answer to questionID, replacing any
// previous answer for that question.
func (m *interviewManager) SaveAnswer(questionID, content string, opts AnswerOpts) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.checkMutable(); !ok {
		return r
	}
	stage, known := m.catalog.StageOf(questionID)
	if !known {
		return Result{Outcome: OutcomeBlocked, Reason: fmt.Sprintf("unknown question %q", questionID)}
	}

	now := m.now()
	answer := models.Answer{
		QuestionID: questionID,
		Content:    content,
		Timestamp:  now,
		AudioRef:   opts.AudioRef,
	}
	if len(opts.Attachments) > 0 {
		answer.Attachments = append([]string(nil), opts.Attachments...)
	}

	replaced := false
	for i := range m.session.Answers {
		if m.session.Answers[i].QuestionID == questionID {
			m.session.Answers[i] = answer
			replaced = true
			break
		}
	}
	if !replaced {
		m.session.Answers = append(m.session.Answers, answer)
	}
	m.session.LastUpdate = now
	m.commit()

	logEvent(m.logger, "answer.saved", map[string]any{
		"session_id":  m.session.ID,
		"question_id": questionID,
		"stage":       string(stage),
		"length":      runeLen(content),
		"replaced":    replaced,
	})
	return Result{Outcome: OutcomeApplied}
}

// NextQuestion moves to the next question of the current stage when the
// current one is optional or answered. It never crosses a stage boundary.
func (m *interviewManager) NextQuestion() Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.checkMutable(); !ok {
		return r
	}
	if !m.canAdvanceLocked() {
		return Result{Outcome: OutcomeBlocked, Reason: "the current question is required and has no answer"}
	}
	qs := m.catalog.QuestionsForStage(m.session.CurrentStage)
	if m.session.CurrentQuestionIndex >= len(qs)-1 {
		return Result{Outcome: OutcomeUnchanged, Reason: "already at the last question of this stage"}
	}

	m.session.CurrentQuestionIndex++
	m.session.LastUpdate = m.now()
	m.commit()
	m.logQuestionChanged()
	return Result{Outcome: OutcomeApplied}
}

// PreviousQuestion moves back one question. Backward moves are never guarded.
func (m *interviewManager) PreviousQuestion() Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.checkMutable(); !ok {
		return r
	}
	if m.session.CurrentQuestionIndex <= 0 {
		return Result{Outcome: OutcomeUnchanged, Reason: "already at the first question of this stage"}
	}

	m.session.CurrentQuestionIndex--
	m.session.LastUpdate = m.now()
	m.commit()
	m.logQuestionChanged()
	return Result{Outcome: OutcomeApplied}
}

// AdvanceStage moves to the next stage once every required question of the
// current one is answered. Advancing past the last stage completes the
// interview.
func (m *interviewManager) AdvanceStage() Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.checkMutable(); !ok {
		return r
	}
	if !m.stageCompleteLocked() {
		return Result{Outcome: OutcomeBlocked, Reason: "required questions in this stage are still unanswered"}
	}

	from := m.session.CurrentStage
	next, ok := m.catalog.NextStage(from)
	now := m.now()
	if !ok {
		m.session.Status = models.SessionCompleted
		m.session.LastUpdate = now
		m.commit()
		logEvent(m.logger, "session.completed", map[string]any{
			"session_id": m.session.ID,
			"answers":    len(m.session.Answers),
			"duration":   now.Sub(m.session.StartTime).String(),
		})
		return Result{Outcome: OutcomeApplied, Reason: "interview completed", Finished: true}
	}

	m.session.CurrentStage = next
	m.session.CurrentQuestionIndex = 0
	m.session.LastUpdate = now
	m.commit()
	logEvent(m.logger, "stage.advanced", map[string]any{
		"session_id": m.session.ID,
		"from":       string(from),
		"to":         string(next),
	})
	return Result{Outcome: OutcomeApplied}
}

// JumpToStage switches to stage without checking completeness.
func (m *interviewManager) JumpToStage(stage models.Stage) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.checkMutable(); !ok {
		return r
	}
	if !stage.Valid() {
		return Result{Outcome: OutcomeBlocked, Reason: fmt.Sprintf("%v %q", ErrUnknownStage, stage)}
	}

	from := m.session.CurrentStage
	m.session.CurrentStage = stage
	m.session.CurrentQuestionIndex = 0
	m.session.LastUpdate = m.now()
	m.commit()
	logEvent(m.logger, "stage.jumped", map[string]any{
		"session_id": m.session.ID,
		"from":       string(from),
		"to":         string(stage),
	})
	return Result{Outcome: OutcomeApplied}
}

// --- Queries ---

func (m *interviewManager) State() SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

// Session returns a copy of the current session, or nil.
func (m *interviewManager) Session() *models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Clone()
}

func (m *interviewManager) Progress() models.Progress {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneProgress(m.progress)
}

func (m *interviewManager) CurrentQuestions() []models.Question {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	return m.catalog.QuestionsForStage(m.session.CurrentStage)
}

func (m *interviewManager) CurrentQuestion() (models.Question, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentQuestionLocked()
}

func (m *interviewManager) CurrentStageInfo() (models.StageInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return models.StageInfo{}, false
	}
	return m.catalog.StageMetadata(m.session.CurrentStage)
}

func (m *interviewManager) Answer(questionID string) (models.Answer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return models.Answer{}, false
	}
	return m.session.FindAnswer(questionID)
}

func (m *interviewManager) Answers() []models.Answer {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	return m.session.Clone().Answers
}

func (m *interviewManager) IsQuestionAnswered(questionID string) bool {
	_, ok := m.Answer(questionID)
	return ok
}

// StageIsComplete reports whether every required question of the current
// stage has an answer. Optional questions never affect it.
func (m *interviewManager) StageIsComplete() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return false
	}
	return m.stageCompleteLocked()
}

// CanAdvanceQuestion is the guard used by NextQuestion.
func (m *interviewManager) CanAdvanceQuestion() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return false
	}
	return m.canAdvanceLocked()
}

// CurrentStageProgress is the completion percentage of the current stage.
func (m *interviewManager) CurrentStageProgress() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return 0
	}
	return m.progress.StageProgress[m.session.CurrentStage]
}

func (m *interviewManager) Catalog() QuestionCatalog {
	return m.catalog
}

// --- Internals (callers hold m.mu) ---

func (m *interviewManager) stateLocked() SessionState {
	if m.session == nil {
		return StateNoSession
	}
	switch m.session.Status {
	case models.SessionCompleted:
		return StateCompleted
	case models.SessionPaused:
		return StatePaused
	default:
		return StateActive
	}
}

// checkMutable returns ok=false with the rejection result when the session
// cannot be changed right now.
func (m *interviewManager) checkMutable() (Result, bool) {
	switch m.stateLocked() {
	case StateNoSession:
		return Result{Outcome: OutcomeNoSession, Reason: "no interview has been started"}, false
	case StatePaused:
		return Result{Outcome: OutcomePaused, Reason: "the interview is paused"}, false
	case StateCompleted:
		return Result{Outcome: OutcomeCompleted, Reason: "interview already completed"}, false
	}
	return Result{}, true
}

func (m *interviewManager) currentQuestionLocked() (models.Question, bool) {
	if m.session == nil {
		return models.Question{}, false
	}
	qs := m.catalog.QuestionsForStage(m.session.CurrentStage)
	i := m.session.CurrentQuestionIndex
	if i < 0 || i >= len(qs) {
		return models.Question{}, false
	}
	return qs[i], true
}

func (m *interviewManager) canAdvanceLocked() bool {
	q, ok := m.currentQuestionLocked()
	if !ok {
		return false
	}
	if !q.Required {
		return true
	}
	_, answered := m.session.FindAnswer(q.ID)
	return answered
}

func (m *interviewManager) stageCompleteLocked() bool {
	for _, q := range m.catalog.QuestionsForStage(m.session.CurrentStage) {
		if !q.Required {
			continue
		}
		if _, ok := m.session.FindAnswer(q.ID); !ok {
			return false
		}
	}
	return true
}

// normalize repairs a snapshot read from outside so the index invariant holds.
func (m *interviewManager) normalize(s *models.Session) {
	if !s.CurrentStage.Valid() {
		s.CurrentStage = m.catalog.FirstStage()
		s.CurrentQuestionIndex = 0
	}
	n := len(m.catalog.QuestionsForStage(s.CurrentStage))
	if s.CurrentQuestionIndex < 0 || s.CurrentQuestionIndex >= n {
		s.CurrentQuestionIndex = 0
	}
	if s.Answers == nil {
		s.Answers = []models.Answer{}
	}
	switch s.Status {
	case models.SessionActive, models.SessionPaused, models.SessionCompleted:
	default:
		s.Status = models.SessionActive
	}
}

// commit recomputes progress and persists both snapshots. Write failures are
// logged; the in-memory state stays authoritative.
func (m *interviewManager) commit() {
	m.progress = m.computeProgress()
	if m.session != nil {
		m.session.Progress = m.progress.Overall
	}
	if m.store == nil || m.session == nil {
		return
	}

	m.put(SessionSnapshotKey, m.session)
	m.put(ProgressSnapshotKey, m.progress)
}

func (m *interviewManager) put(key string, v any) {
	data, err := yaml.Marshal(v)
	if err == nil {
		err = m.store.Put(key, data)
	}
	if err != nil {
		logEvent(m.logger, "persistence.save_failed", map[string]any{
			"key":   key,
			"error": err.Error(),
		})
	}
}

func (m *interviewManager) computeProgress() models.Progress {
	p := models.Progress{
		TotalQuestions: m.catalog.TotalQuestionCount(),
		StageProgress:  make(map[models.Stage]int),
	}

	answeredByStage := make(map[models.Stage]int)
	if m.session != nil {
		p.CurrentStage = m.session.CurrentStage
		p.AnsweredQuestions = len(m.session.Answers)
		for _, a := range m.session.Answers {
			if st, ok := m.catalog.StageOf(a.QuestionID); ok {
				answeredByStage[st]++
			}
		}
	}

	remaining := 0.0
	for _, st := range m.catalog.Stages() {
		total := len(m.catalog.QuestionsForStage(st))
		pct := percent(answeredByStage[st], total)
		p.StageProgress[st] = pct
		if info, ok := m.catalog.StageMetadata(st); ok {
			remaining += float64(info.EstimatedMinutes) * float64(100-pct) / 100
		}
	}
	p.Overall = percent(p.AnsweredQuestions, p.TotalQuestions)
	p.EstimatedTimeRemaining = int(math.Round(remaining))
	return p
}

func (m *interviewManager) logQuestionChanged() {
	logEvent(m.logger, "question.changed", map[string]any{
		"session_id": m.session.ID,
		"stage":      string(m.session.CurrentStage),
		"index":      m.session.CurrentQuestionIndex,
	})
}

// percent returns part/total as a rounded percentage, 0 when total is 0.
func percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) * 100 / float64(total)))
}

func cloneProgress(p models.Progress) models.Progress {
	c := p
	c.StageProgress = make(map[models.Stage]int, len(p.StageProgress))
	for k, v := range p.StageProgress {
		c.StageProgress[k] = v
	}
	return c
}
