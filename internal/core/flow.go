package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/yishu-dev/yishu/pkg/models"
)

// Submission is the outcome of submitting one answer.
type Submission struct {
	Saved    Result
	Analysis *models.AnswerAnalysis
	// AnalysisErr is set when the answer was saved but analysis failed.
	AnalysisErr error
}

// InterviewFlow runs the answer pipeline: auto-save, analysis and events.
type InterviewFlow struct {
	interview InterviewManager
	analyzer  AnswerAnalyzer
	notifier  Notifier
	logger    EventLogger
}

// NewInterviewFlow wires the pipeline. notifier and logger may be nil.
func NewInterviewFlow(interview InterviewManager, analyzer AnswerAnalyzer, notifier Notifier, logger EventLogger) *InterviewFlow {
	return &InterviewFlow{
		interview: interview,
		analyzer:  analyzer,
		notifier:  notifier,
		logger:    logger,
	}
}

// Submit trims content and, if anything is left, saves it as the answer to
// questionID and analyses it. An empty answer is not saved.
func (f *InterviewFlow) Submit(ctx context.Context, questionID, content string, opts AnswerOpts) *Submission {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return &Submission{Saved: Result{Outcome: OutcomeUnchanged, Reason: "empty answer was not saved"}}
	}

	sub := &Submission{Saved: f.interview.SaveAnswer(questionID, trimmed, opts)}
	if !sub.Saved.Applied() {
		return sub
	}

	q, _ := f.interview.Catalog().Question(questionID)
	analysis, err := f.analyzer.Analyze(ctx, q, trimmed)
	if err != nil {
		sub.AnalysisErr = err
		notify(f.notifier, NoticeError, "智能分析失败，请稍后重试")
		logEvent(f.logger, "answer.analysis_failed", map[string]any{
			"question_id": questionID,
			"error":       err.Error(),
		})
		return sub
	}
	sub.Analysis = analysis
	f.logAnalyzed(analysis)
	return sub
}

// Analyze runs analysis on content for questionID without saving anything.
func (f *InterviewFlow) Analyze(ctx context.Context, questionID, content string) (*models.AnswerAnalysis, error) {
	q, ok := f.interview.Catalog().Question(questionID)
	if !ok {
		return nil, fmt.Errorf("analyzing answer: unknown question %q", questionID)
	}
	analysis, err := f.analyzer.Analyze(ctx, q, strings.TrimSpace(content))
	if err != nil {
		notify(f.notifier, NoticeError, "智能分析失败，请稍后重试")
		return nil, err
	}
	f.logAnalyzed(analysis)
	return analysis, nil
}

func (f *InterviewFlow) logAnalyzed(a *models.AnswerAnalysis) {
	logEvent(f.logger, "answer.analyzed", map[string]any{
		"question_id": a.QuestionID,
		"stage":       string(a.Stage),
		"score":       a.Completeness.Score,
		"complete":    a.Completeness.IsComplete,
		"emotion":     string(a.Emotion),
		"follow_ups":  len(a.FollowUps),
	})
}
