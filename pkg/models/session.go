package models

import "time"

// Answer is the stored response to one question. A session holds at most one
// answer per question id; saving again replaces the whole record.
type Answer struct {
	QuestionID  string    `yaml:"question_id" json:"question_id"`
	Content     string    `yaml:"content" json:"content"`
	Timestamp   time.Time `yaml:"timestamp" json:"timestamp"`
	AudioRef    string    `yaml:"audio_ref,omitempty" json:"audio_ref,omitempty"`
	Attachments []string  `yaml:"attachments,omitempty" json:"attachments,omitempty"`
}

// SessionStatus is the lifecycle state of a persisted session.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionPaused    SessionStatus = "paused"
	SessionCompleted SessionStatus = "completed"
)

// Session is one user's interview: position, answers and completion state.
type Session struct {
	ID                   string        `yaml:"id" json:"id"`
	UserID               string        `yaml:"user_id" json:"user_id"`
	CurrentStage         Stage         `yaml:"current_stage" json:"current_stage"`
	CurrentQuestionIndex int           `yaml:"current_question_index" json:"current_question_index"`
	Answers              []Answer      `yaml:"answers" json:"answers"`
	StartTime            time.Time     `yaml:"start_time" json:"start_time"`
	LastUpdate           time.Time     `yaml:"last_update" json:"last_update"`
	Status               SessionStatus `yaml:"status" json:"status"`
	Progress             int           `yaml:"progress" json:"progress"`
}

// FindAnswer returns the answer stored for questionID, if any.
func (s *Session) FindAnswer(questionID string) (Answer, bool) {
	for _, a := range s.Answers {
		if a.QuestionID == questionID {
			return a, true
		}
	}
	return Answer{}, false
}

// Clone returns a deep copy so callers can read a session without holding
// the owner's lock.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Answers = make([]Answer, len(s.Answers))
	for i, a := range s.Answers {
		c.Answers[i] = a
		if a.Attachments != nil {
			c.Answers[i].Attachments = append([]string(nil), a.Attachments...)
		}
	}
	return &c
}

// Progress is derived from a session and the catalog. It is recomputed after
// every mutation and is never authoritative on its own.
type Progress struct {
	TotalQuestions         int           `yaml:"total_questions" json:"total_questions"`
	AnsweredQuestions      int           `yaml:"answered_questions" json:"answered_questions"`
	CurrentStage           Stage         `yaml:"current_stage" json:"current_stage"`
	StageProgress          map[Stage]int `yaml:"stage_progress" json:"stage_progress"`
	Overall                int           `yaml:"overall" json:"overall"`
	EstimatedTimeRemaining int           `yaml:"estimated_time_remaining" json:"estimated_time_remaining"`
}
