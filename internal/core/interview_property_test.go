package core

import (
	"testing"

	"github.com/yishu-dev/yishu/pkg/models"
	"pgregory.net/rapid"
)

var allQuestionIDs = func() []string {
	c := DefaultQuestionCatalog()
	var ids []string
	for _, st := range c.Stages() {
		for _, q := range c.QuestionsForStage(st) {
			ids = append(ids, q.ID)
		}
	}
	return ids
}()

// applyRandomOp performs one randomly chosen session operation.
func applyRandomOp(rt *rapid.T, m InterviewManager) {
	switch rapid.IntRange(0, 7).Draw(rt, "op") {
	case 0:
		id := rapid.SampledFrom(allQuestionIDs).Draw(rt, "qid")
		content := rapid.StringMatching(`[a-z开心第一次]{0,30}`).Draw(rt, "content")
		m.SaveAnswer(id, content, AnswerOpts{})
	case 1:
		m.NextQuestion()
	case 2:
		m.PreviousQuestion()
	case 3:
		m.AdvanceStage()
	case 4:
		m.JumpToStage(rapid.SampledFrom(models.AllStages()).Draw(rt, "stage"))
	case 5:
		m.Pause()
	case 6:
		m.Continue()
	case 7:
		id := rapid.SampledFrom(allQuestionIDs).Draw(rt, "qid")
		m.SaveAnswer(id, "again", AnswerOpts{})
	}
}

// Feature: yishu, Property 1: Question Index Stays In Range
// After any sequence of operations the current index points into the current
// stage's question list.
func TestProperty_QuestionIndexInRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		m := newTestManager(nil, nil)
		m.Start("u1")

		steps := rapid.IntRange(1, 60).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			applyRandomOp(rt, m)
			s := m.Session()
			n := len(m.Catalog().QuestionsForStage(s.CurrentStage))
			if s.CurrentQuestionIndex < 0 || (n > 0 && s.CurrentQuestionIndex >= n) {
				rt.Fatalf("index %d out of range for %s (%d questions)", s.CurrentQuestionIndex, s.CurrentStage, n)
			}
		}
	})
}

// Feature: yishu, Property 2: One Answer Per Question
// No question id ever has more than one stored answer.
func TestProperty_OneAnswerPerQuestion(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		m := newTestManager(nil, nil)
		m.Start("u1")

		steps := rapid.IntRange(1, 60).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			applyRandomOp(rt, m)
		}
		seen := make(map[string]bool)
		for _, a := range m.Answers() {
			if seen[a.QuestionID] {
				rt.Fatalf("duplicate answer for %s", a.QuestionID)
			}
			seen[a.QuestionID] = true
		}
	})
}

// Feature: yishu, Property 3: Progress Matches Session
// The cached progress always equals a fresh recomputation.
func TestProperty_ProgressMatchesSession(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		m := newTestManager(nil, nil)
		m.Start("u1")

		steps := rapid.IntRange(1, 40).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			applyRandomOp(rt, m)
		}

		got := m.Progress()
		m.mu.Lock()
		want := m.computeProgress()
		m.mu.Unlock()

		if got.Overall != want.Overall || got.AnsweredQuestions != want.AnsweredQuestions ||
			got.EstimatedTimeRemaining != want.EstimatedTimeRemaining {
			rt.Fatalf("progress = %+v, recomputed %+v", got, want)
		}
		for st, pct := range want.StageProgress {
			if got.StageProgress[st] != pct {
				rt.Fatalf("stage %s = %d, recomputed %d", st, got.StageProgress[st], pct)
			}
			if pct < 0 || pct > 100 {
				rt.Fatalf("stage %s percentage %d out of range", st, pct)
			}
		}
		if got.AnsweredQuestions != len(m.Answers()) {
			rt.Fatalf("answered = %d, len(answers) = %d", got.AnsweredQuestions, len(m.Answers()))
		}
	})
}

// Feature: yishu, Property 4: Optional Answers Never Complete A Stage
// Answering only optional questions leaves StageIsComplete unchanged.
func TestProperty_OptionalAnswersDoNotAffectCompleteness(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		m := newTestManager(nil, nil)
		m.Start("u1")
		stage := rapid.SampledFrom(models.AllStages()).Draw(rt, "stage")
		m.JumpToStage(stage)

		before := m.StageIsComplete()
		for _, q := range m.CurrentQuestions() {
			if !q.Required {
				m.SaveAnswer(q.ID, rapid.String().Draw(rt, "content"), AnswerOpts{})
			}
		}
		if m.StageIsComplete() != before {
			rt.Fatalf("optional answers changed completeness for %s", stage)
		}
	})
}

// Feature: yishu, Property 5: Snapshot Round Trip
// Loading the persisted snapshot reproduces the session position and answers.
func TestProperty_SnapshotRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		store := newMemSnapshotStore()
		m := newTestManager(store, nil)
		m.Start("u1")

		steps := rapid.IntRange(1, 30).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			applyRandomOp(rt, m)
		}

		restored := newTestManager(store, nil)
		if st := restored.Load(); st != m.State() {
			rt.Fatalf("Load() = %s, want %s", st, m.State())
		}
		want, got := m.Session(), restored.Session()
		if got.ID != want.ID || got.CurrentStage != want.CurrentStage ||
			got.CurrentQuestionIndex != want.CurrentQuestionIndex || got.Status != want.Status {
			rt.Fatalf("restored %+v, want %+v", got, want)
		}
		if len(got.Answers) != len(want.Answers) {
			rt.Fatalf("restored %d answers, want %d", len(got.Answers), len(want.Answers))
		}
		for _, a := range want.Answers {
			r, ok := got.FindAnswer(a.QuestionID)
			if !ok || r.Content != a.Content || !r.Timestamp.Equal(a.Timestamp) {
				rt.Fatalf("answer %s restored as %+v", a.QuestionID, r)
			}
		}
	})
}
