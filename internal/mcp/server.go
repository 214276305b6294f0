// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the interview engine as MCP tools for AI assistants.
package mcp

import (
	"context"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/yishu-dev/yishu/internal/core"
	"github.com/yishu-dev/yishu/internal/observability"
	"github.com/yishu-dev/yishu/pkg/models"
)

// Services are the engine components the server exposes. Metrics and
// Alerts may be nil if observability is disabled.
type Services struct {
	Interview   core.InterviewManager
	Flow        *core.InterviewFlow
	Biographer  core.BiographyGenerator
	SubjectName string
	Metrics     observability.MetricsCalculator
	Alerts      observability.AlertEngine
}

// Server wraps the interview services and exposes them as MCP tools.
type Server struct {
	server *gomcp.Server
	svc    Services
}

// NewServer creates a new MCP server over svc.
func NewServer(svc Services, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{svc: svc}
	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "yishu", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type emptyInput struct{}

type progressOutput struct {
	State                  string         `json:"state"`
	SessionID              string         `json:"session_id,omitempty"`
	CurrentStage           string         `json:"current_stage,omitempty"`
	CurrentQuestionIndex   int            `json:"current_question_index"`
	TotalQuestions         int            `json:"total_questions"`
	AnsweredQuestions      int            `json:"answered_questions"`
	Overall                int            `json:"overall"`
	StageProgress          map[string]int `json:"stage_progress"`
	EstimatedTimeRemaining int            `json:"estimated_time_remaining"`
}

type questionOutput struct {
	ID          string   `json:"id"`
	Text        string   `json:"text"`
	Stage       string   `json:"stage"`
	StageTitle  string   `json:"stage_title,omitempty"`
	Position    int      `json:"position"`
	StageSize   int      `json:"stage_size"`
	Required    bool     `json:"required"`
	Placeholder string   `json:"placeholder,omitempty"`
	Answered    bool     `json:"answered"`
	Answer      string   `json:"answer,omitempty"`
	Hints       []string `json:"hints,omitempty"`
	CanAdvance  bool     `json:"can_advance"`
}

type saveAnswerInput struct {
	QuestionID string `json:"question_id,omitempty" jsonschema:"question to answer; defaults to the current question"`
	Content    string `json:"content" jsonschema:"required,the answer text"`
}

type analysisOutput struct {
	QuestionID  string         `json:"question_id"`
	Stage       string         `json:"stage"`
	Emotion     string         `json:"emotion,omitempty"`
	Score       int            `json:"score"`
	IsComplete  bool           `json:"is_complete"`
	Suggestions []string       `json:"suggestions,omitempty"`
	FollowUps   []string       `json:"follow_ups,omitempty"`
	KeyInfo     models.KeyInfo `json:"key_info"`
}

type saveAnswerOutput struct {
	Outcome       string          `json:"outcome"`
	QuestionID    string          `json:"question_id"`
	Analysis      *analysisOutput `json:"analysis,omitempty"`
	AnalysisError string          `json:"analysis_error,omitempty"`
}

type moveOutput struct {
	Outcome           string `json:"outcome"`
	Message           string `json:"message,omitempty"`
	Finished          bool   `json:"finished"`
	CurrentStage      string `json:"current_stage,omitempty"`
	CurrentQuestionID string `json:"current_question_id,omitempty"`
	Overall           int    `json:"overall"`
}

type jumpInput struct {
	Stage string `json:"stage" jsonschema:"required,target stage (childhood, education, career, relationship, reflection)"`
}

type analyzeInput struct {
	QuestionID string `json:"question_id,omitempty" jsonschema:"question the text answers; defaults to the current question"`
	Content    string `json:"content" jsonschema:"required,the answer text to analyze"`
}

type biographyInput struct {
	Style       string `json:"style,omitempty" jsonschema:"style key (classic, family, inspirational); defaults to classic"`
	SubjectName string `json:"subject_name,omitempty" jsonschema:"name of the person the biography is about"`
}

type chapterOutput struct {
	Title     string   `json:"title"`
	Stage     string   `json:"stage"`
	WordCount int      `json:"word_count"`
	KeyEvents []string `json:"key_events,omitempty"`
}

type biographyOutput struct {
	Title       string          `json:"title"`
	Style       string          `json:"style"`
	WordCount   int             `json:"word_count"`
	Chapters    []chapterOutput `json:"chapters"`
	Content     string          `json:"content"`
	Unplaced    []string        `json:"unplaced,omitempty"`
	GeneratedAt string          `json:"generated_at"`
}

type listStylesOutput struct {
	Styles []models.StyleInfo `json:"styles"`
	Count  int                `json:"count"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type metricsOutput struct {
	SessionsStarted      int            `json:"sessions_started"`
	InterviewsCompleted  int            `json:"interviews_completed"`
	AnswersSaved         int            `json:"answers_saved"`
	AnswersAnalyzed      int            `json:"answers_analyzed"`
	AvgCompleteness      float64        `json:"avg_completeness"`
	StagesAdvanced       int            `json:"stages_advanced"`
	BiographiesGenerated int            `json:"biographies_generated"`
	BiographiesByStyle   map[string]int `json:"biographies_by_style"`
	ExportsByFormat      map[string]int `json:"exports_by_format"`
	ExportFailures       int            `json:"export_failures"`
	SpeechCaptures       int            `json:"speech_captures"`
	EventCount           int            `json:"event_count"`
	OldestEvent          string         `json:"oldest_event,omitempty"`
	NewestEvent          string         `json:"newest_event,omitempty"`
}

type alertOutput struct {
	ID          string `json:"id"`
	Condition   string `json:"condition"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	TriggeredAt string `json:"triggered_at"`
}

type getAlertsOutput struct {
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_progress",
		Description: "Get the interview state and progress: answered questions, per-stage completion and estimated minutes remaining.",
	}, s.handleGetProgress)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "current_question",
		Description: "Get the question the interview is currently on, with its stored answer and writing hints.",
	}, s.handleCurrentQuestion)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "save_answer",
		Description: "Save an answer (defaults to the current question) and return its analysis with follow-up questions.",
	}, s.handleSaveAnswer)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "next_question",
		Description: "Move to the next question of the current stage. Blocked while a required question is unanswered.",
	}, s.handleNextQuestion)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "previous_question",
		Description: "Move back to the previous question of the current stage.",
	}, s.handlePreviousQuestion)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "advance_stage",
		Description: "Move to the next life stage once its required questions are answered. Advancing past the last stage completes the interview.",
	}, s.handleAdvanceStage)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "jump_to_stage",
		Description: "Jump directly to a life stage (childhood, education, career, relationship, reflection) without completeness checks.",
	}, s.handleJumpToStage)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "analyze_answer",
		Description: "Analyze answer text without saving it: completeness score, emotion, key information and follow-up questions.",
	}, s.handleAnalyzeAnswer)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "generate_biography",
		Description: "Generate a biography from all saved answers in the chosen style.",
	}, s.handleGenerateBiography)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_styles",
		Description: "List the available biography styles.",
	}, s.handleListStyles)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get aggregated metrics from the event log: sessions, answers, completeness, biographies and exports.",
	}, s.handleGetMetrics)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_alerts",
		Description: "Evaluate and return active alerts (stalled interview, low answer quality, export failures).",
	}, s.handleGetAlerts)
}

// --- Tool handlers ---

// refresh reloads the persisted session so changes made by other processes
// sharing the store are visible.
func (s *Server) refresh() core.SessionState {
	return s.svc.Interview.Load()
}

func (s *Server) handleGetProgress(_ context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, progressOutput, error) {
	state := s.refresh()
	p := s.svc.Interview.Progress()

	out := progressOutput{
		State:                  string(state),
		TotalQuestions:         p.TotalQuestions,
		AnsweredQuestions:      p.AnsweredQuestions,
		Overall:                p.Overall,
		StageProgress:          make(map[string]int, len(p.StageProgress)),
		EstimatedTimeRemaining: p.EstimatedTimeRemaining,
	}
	for st, pct := range p.StageProgress {
		out.StageProgress[string(st)] = pct
	}
	if sess := s.svc.Interview.Session(); sess != nil {
		out.SessionID = sess.ID
		out.CurrentStage = string(sess.CurrentStage)
		out.CurrentQuestionIndex = sess.CurrentQuestionIndex
	}
	return nil, out, nil
}

func (s *Server) handleCurrentQuestion(_ context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, questionOutput, error) {
	if s.refresh() == core.StateNoSession {
		return errorResult(noSessionMessage), questionOutput{}, nil
	}
	q, ok := s.svc.Interview.CurrentQuestion()
	if !ok {
		return errorResult("no current question"), questionOutput{}, nil
	}

	sess := s.svc.Interview.Session()
	out := questionOutput{
		ID:          q.ID,
		Text:        q.Text,
		Stage:       string(q.Stage),
		Position:    sess.CurrentQuestionIndex + 1,
		StageSize:   len(s.svc.Interview.CurrentQuestions()),
		Required:    q.Required,
		Placeholder: q.Placeholder,
		Hints:       core.QuestionHints(q),
		CanAdvance:  s.svc.Interview.CanAdvanceQuestion(),
	}
	if info, ok := s.svc.Interview.CurrentStageInfo(); ok {
		out.StageTitle = info.Title
	}
	if a, ok := s.svc.Interview.Answer(q.ID); ok {
		out.Answered = true
		out.Answer = a.Content
	}
	return nil, out, nil
}

func (s *Server) handleSaveAnswer(ctx context.Context, _ *gomcp.CallToolRequest, input saveAnswerInput) (*gomcp.CallToolResult, saveAnswerOutput, error) {
	if s.refresh() == core.StateNoSession {
		return errorResult(noSessionMessage), saveAnswerOutput{}, nil
	}
	questionID, errRes := s.resolveQuestionID(input.QuestionID)
	if errRes != nil {
		return errRes, saveAnswerOutput{}, nil
	}

	sub := s.svc.Flow.Submit(ctx, questionID, input.Content, core.AnswerOpts{})
	if !sub.Saved.Applied() {
		return errorResult(fmt.Sprintf("answer not saved: %s", sub.Saved)), saveAnswerOutput{}, nil
	}

	out := saveAnswerOutput{
		Outcome:    sub.Saved.Outcome.String(),
		QuestionID: questionID,
	}
	if sub.AnalysisErr != nil {
		out.AnalysisError = fmt.Sprintf("智能分析失败，请稍后重试 (%s)", sub.AnalysisErr)
	} else if sub.Analysis != nil {
		a := analysisToOutput(sub.Analysis)
		out.Analysis = &a
	}
	return nil, out, nil
}

func (s *Server) handleNextQuestion(_ context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, moveOutput, error) {
	s.refresh()
	return s.moveResult(s.svc.Interview.NextQuestion())
}

func (s *Server) handlePreviousQuestion(_ context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, moveOutput, error) {
	s.refresh()
	return s.moveResult(s.svc.Interview.PreviousQuestion())
}

func (s *Server) handleAdvanceStage(_ context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, moveOutput, error) {
	s.refresh()
	return s.moveResult(s.svc.Interview.AdvanceStage())
}

func (s *Server) handleJumpToStage(_ context.Context, _ *gomcp.CallToolRequest, input jumpInput) (*gomcp.CallToolResult, moveOutput, error) {
	stage, err := models.ParseStage(input.Stage)
	if err != nil {
		return errorResult(err.Error()), moveOutput{}, nil
	}
	s.refresh()
	return s.moveResult(s.svc.Interview.JumpToStage(stage))
}

func (s *Server) handleAnalyzeAnswer(ctx context.Context, _ *gomcp.CallToolRequest, input analyzeInput) (*gomcp.CallToolResult, analysisOutput, error) {
	questionID := input.QuestionID
	if questionID == "" {
		if s.refresh() == core.StateNoSession {
			return errorResult("question_id is required when no interview session exists"), analysisOutput{}, nil
		}
		var errRes *gomcp.CallToolResult
		if questionID, errRes = s.resolveQuestionID(""); errRes != nil {
			return errRes, analysisOutput{}, nil
		}
	}

	analysis, err := s.svc.Flow.Analyze(ctx, questionID, input.Content)
	if err != nil {
		return errorResult(fmt.Sprintf("analyzing answer: %s", err)), analysisOutput{}, nil
	}
	return nil, analysisToOutput(analysis), nil
}

func (s *Server) handleGenerateBiography(ctx context.Context, _ *gomcp.CallToolRequest, input biographyInput) (*gomcp.CallToolResult, biographyOutput, error) {
	s.refresh()
	answers := s.svc.Interview.Answers()
	if len(answers) == 0 {
		return errorResult("no answers saved yet; answer some questions first"), biographyOutput{}, nil
	}

	name := input.SubjectName
	if name == "" {
		name = s.svc.SubjectName
	}
	bio, err := s.svc.Biographer.Generate(ctx, answers, input.Style, name)
	if err != nil {
		return errorResult(fmt.Sprintf("generating biography: %s", err)), biographyOutput{}, nil
	}

	out := biographyOutput{
		Title:       bio.Title,
		Style:       bio.Style,
		WordCount:   bio.WordCount,
		Chapters:    make([]chapterOutput, len(bio.Chapters)),
		Content:     bio.Content,
		Unplaced:    bio.Unplaced,
		GeneratedAt: bio.GeneratedAt.Format(time.RFC3339),
	}
	for i, ch := range bio.Chapters {
		out.Chapters[i] = chapterOutput{
			Title:     ch.Title,
			Stage:     string(ch.Stage),
			WordCount: ch.WordCount,
			KeyEvents: ch.KeyEvents,
		}
	}
	return nil, out, nil
}

func (s *Server) handleListStyles(_ context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, listStylesOutput, error) {
	styles := s.svc.Biographer.ListStyles()
	return nil, listStylesOutput{Styles: styles, Count: len(styles)}, nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.svc.Metrics == nil {
		return errorResult("metrics calculator not available (observability may be disabled)"), emptyMetricsOutput(), nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}

	sinceTime, err := parseSince(sinceStr)
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyMetricsOutput(), nil
	}

	metrics, err := s.svc.Metrics.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), emptyMetricsOutput(), nil
	}

	out := metricsOutput{
		SessionsStarted:      metrics.SessionsStarted,
		InterviewsCompleted:  metrics.InterviewsCompleted,
		AnswersSaved:         metrics.AnswersSaved,
		AnswersAnalyzed:      metrics.AnswersAnalyzed,
		AvgCompleteness:      metrics.AvgCompleteness,
		StagesAdvanced:       metrics.StagesAdvanced,
		BiographiesGenerated: metrics.BiographiesGenerated,
		BiographiesByStyle:   metrics.BiographiesByStyle,
		ExportsByFormat:      metrics.ExportsByFormat,
		ExportFailures:       metrics.ExportFailures,
		SpeechCaptures:       metrics.SpeechCaptures,
		EventCount:           metrics.EventCount,
	}
	if metrics.OldestEvent != nil {
		out.OldestEvent = metrics.OldestEvent.Format(time.RFC3339)
	}
	if metrics.NewestEvent != nil {
		out.NewestEvent = metrics.NewestEvent.Format(time.RFC3339)
	}

	return nil, out, nil
}

func (s *Server) handleGetAlerts(_ context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, getAlertsOutput, error) {
	if s.svc.Alerts == nil {
		return errorResult("alert engine not available (observability may be disabled)"), getAlertsOutput{}, nil
	}

	alerts, err := s.svc.Alerts.Evaluate()
	if err != nil {
		return errorResult(fmt.Sprintf("evaluating alerts: %s", err)), getAlertsOutput{}, nil
	}

	out := getAlertsOutput{
		Alerts: make([]alertOutput, len(alerts)),
		Count:  len(alerts),
	}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			ID:          a.ID,
			Condition:   a.Condition,
			Severity:    string(a.Severity),
			Message:     a.Message,
			TriggeredAt: a.TriggeredAt.Format(time.RFC3339),
		}
	}

	return nil, out, nil
}

// --- Helpers ---

const noSessionMessage = "no interview session; start one with `yishu start`"

func (s *Server) resolveQuestionID(id string) (string, *gomcp.CallToolResult) {
	if id != "" {
		return id, nil
	}
	q, ok := s.svc.Interview.CurrentQuestion()
	if !ok {
		return "", errorResult("no current question")
	}
	return q.ID, nil
}

// moveResult turns a navigation Result into a tool result. Anything other
// than an applied change is reported as a tool error carrying the reason.
func (s *Server) moveResult(r core.Result) (*gomcp.CallToolResult, moveOutput, error) {
	if !r.Applied() {
		if r.Outcome == core.OutcomeNoSession {
			return errorResult(noSessionMessage), moveOutput{}, nil
		}
		return errorResult(r.String()), moveOutput{}, nil
	}

	out := moveOutput{
		Outcome:  r.Outcome.String(),
		Message:  r.Reason,
		Finished: r.Finished,
		Overall:  s.svc.Interview.Progress().Overall,
	}
	if sess := s.svc.Interview.Session(); sess != nil {
		out.CurrentStage = string(sess.CurrentStage)
	}
	if q, ok := s.svc.Interview.CurrentQuestion(); ok {
		out.CurrentQuestionID = q.ID
	}
	return nil, out, nil
}

func analysisToOutput(a *models.AnswerAnalysis) analysisOutput {
	return analysisOutput{
		QuestionID:  a.QuestionID,
		Stage:       string(a.Stage),
		Emotion:     string(a.Emotion),
		Score:       a.Completeness.Score,
		IsComplete:  a.Completeness.IsComplete,
		Suggestions: a.Completeness.Suggestions,
		FollowUps:   a.FollowUps,
		KeyInfo:     a.KeyInfo,
	}
}

func emptyMetricsOutput() metricsOutput {
	return metricsOutput{
		BiographiesByStyle: make(map[string]int),
		ExportsByFormat:    make(map[string]int),
	}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// parseSince parses a human-friendly duration string like "7d", "30d", or "24h"
// into the corresponding time in the past.
func parseSince(s string) (time.Time, error) {
	now := time.Now().UTC()

	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]
	var num int
	if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}
