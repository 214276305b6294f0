package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/yishu-dev/yishu/internal/core"
	"github.com/yishu-dev/yishu/internal/observability"
	"github.com/yishu-dev/yishu/internal/storage"
)

// --- Fake implementations ---

type fakeMetricsCalculator struct {
	metrics *observability.Metrics
}

func (f *fakeMetricsCalculator) Calculate(_ time.Time) (*observability.Metrics, error) {
	return f.metrics, nil
}

type fakeAlertEngine struct {
	alerts []observability.Alert
}

func (f *fakeAlertEngine) Evaluate() ([]observability.Alert, error) {
	return f.alerts, nil
}

// --- Test helpers ---

type testEnv struct {
	srv       *Server
	interview core.InterviewManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	catalog := core.DefaultQuestionCatalog()
	interview := core.NewInterviewManager(catalog, storage.NewMemStore(), nil)
	analyzer := core.NewAnswerAnalyzer(core.NewFollowUpEngine(1), 0, time.Second)
	flow := core.NewInterviewFlow(interview, analyzer, nil, nil)
	biographer := core.NewBiographyGenerator(catalog, core.DefaultStyleRegistry(), 0, time.Second, nil)

	srv := NewServer(Services{
		Interview:   interview,
		Flow:        flow,
		Biographer:  biographer,
		SubjectName: "张三",
	}, "test")
	return &testEnv{srv: srv, interview: interview}
}

// callTool is a helper that connects a client to the server and calls a tool.
func callTool(t *testing.T, srv *Server, toolName string, args map[string]any) *gomcp.CallToolResult {
	t.Helper()

	ctx := context.Background()
	client := gomcp.NewClient(&gomcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)

	t1, t2 := gomcp.NewInMemoryTransports()

	// Connect server (non-blocking).
	go func() {
		_ = srv.MCPServer().Run(ctx, t1)
	}()

	session, err := client.Connect(ctx, t2, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer session.Close()

	result, err := session.CallTool(ctx, &gomcp.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("call tool %s: %v", toolName, err)
	}

	return result
}

// callToolAllowError is like callTool but returns nil instead of failing when
// the tool call returns a protocol error (e.g. schema validation failure).
func callToolAllowError(t *testing.T, srv *Server, toolName string, args map[string]any) *gomcp.CallToolResult {
	t.Helper()

	ctx := context.Background()
	client := gomcp.NewClient(&gomcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)

	t1, t2 := gomcp.NewInMemoryTransports()

	go func() {
		_ = srv.MCPServer().Run(ctx, t1)
	}()

	session, err := client.Connect(ctx, t2, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer session.Close()

	result, err := session.CallTool(ctx, &gomcp.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
	if err != nil {
		return nil
	}

	return result
}

// decode reads the structured output of a successful call into out.
func decode(t *testing.T, result *gomcp.CallToolResult, out any) {
	t.Helper()

	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}
	text := extractText(result)
	if err := json.Unmarshal([]byte(text), out); err != nil {
		if result.StructuredContent == nil {
			t.Fatalf("unmarshalling output: %v (text was: %s)", err, text)
		}
		data, _ := json.Marshal(result.StructuredContent)
		if err2 := json.Unmarshal(data, out); err2 != nil {
			t.Fatalf("unmarshalling structured output: %v", err2)
		}
	}
}

func extractText(result *gomcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := c.(*gomcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// --- Tests ---

func TestGetProgress_NoSession(t *testing.T) {
	env := newTestEnv(t)

	var out progressOutput
	decode(t, callTool(t, env.srv, "get_progress", map[string]any{}), &out)

	if out.State != string(core.StateNoSession) {
		t.Errorf("state = %q, want no_session", out.State)
	}
	if out.TotalQuestions != 15 || out.AnsweredQuestions != 0 {
		t.Errorf("progress = %+v", out)
	}
}

func TestGetProgress_ActiveSession(t *testing.T) {
	env := newTestEnv(t)
	env.interview.Start("u1")
	env.interview.SaveAnswer("childhood_001", "我在江南的小镇长大。", core.AnswerOpts{})

	var out progressOutput
	decode(t, callTool(t, env.srv, "get_progress", map[string]any{}), &out)

	if out.State != string(core.StateActive) || out.CurrentStage != "childhood" {
		t.Errorf("progress = %+v", out)
	}
	if out.AnsweredQuestions != 1 || out.StageProgress["childhood"] != 25 {
		t.Errorf("answered = %d, childhood = %d", out.AnsweredQuestions, out.StageProgress["childhood"])
	}
	if out.SessionID == "" {
		t.Error("expected a session id")
	}
}

func TestCurrentQuestion(t *testing.T) {
	env := newTestEnv(t)

	result := callTool(t, env.srv, "current_question", map[string]any{})
	if !result.IsError || !strings.Contains(extractText(result), "yishu start") {
		t.Fatalf("expected no-session error, got %q", extractText(result))
	}

	env.interview.Start("u1")
	env.interview.SaveAnswer("childhood_001", "小镇", core.AnswerOpts{})

	var out questionOutput
	decode(t, callTool(t, env.srv, "current_question", map[string]any{}), &out)
	if out.ID != "childhood_001" || !out.Required || out.Position != 1 || out.StageSize != 4 {
		t.Errorf("question = %+v", out)
	}
	if !out.Answered || out.Answer != "小镇" || !out.CanAdvance {
		t.Errorf("answer state = %+v", out)
	}
	if out.StageTitle == "" {
		t.Error("expected stage title")
	}
}

func TestSaveAnswer_DefaultsToCurrentQuestion(t *testing.T) {
	env := newTestEnv(t)
	env.interview.Start("u1")

	content := "我记得小时候最喜欢和朋友们一起玩捉迷藏，那时候在老家的院子里，那种纯真的快乐现在想起来还是很温暖。"
	var out saveAnswerOutput
	decode(t, callTool(t, env.srv, "save_answer", map[string]any{"content": content}), &out)

	if out.QuestionID != "childhood_001" || out.Outcome != "applied" {
		t.Errorf("output = %+v", out)
	}
	if out.Analysis == nil {
		t.Fatal("expected analysis")
	}
	if out.Analysis.Emotion != "positive" {
		t.Errorf("emotion = %q, want positive", out.Analysis.Emotion)
	}
	if len(out.Analysis.FollowUps) == 0 {
		t.Error("expected follow-up questions")
	}
	if !env.interview.IsQuestionAnswered("childhood_001") {
		t.Error("answer was not stored")
	}
}

func TestSaveAnswer_Rejected(t *testing.T) {
	env := newTestEnv(t)

	result := callTool(t, env.srv, "save_answer", map[string]any{"content": "x"})
	if !result.IsError {
		t.Fatal("expected error without a session")
	}

	env.interview.Start("u1")
	tests := map[string]map[string]any{
		"unknown question": {"question_id": "nope_001", "content": "内容"},
		"blank content":    {"question_id": "childhood_001", "content": "   "},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			result := callTool(t, env.srv, "save_answer", args)
			if !result.IsError {
				t.Fatalf("expected error result, got %s", extractText(result))
			}
		})
	}
	if len(env.interview.Answers()) != 0 {
		t.Error("no answer should have been stored")
	}
}

func TestSaveAnswer_MissingContent(t *testing.T) {
	env := newTestEnv(t)
	env.interview.Start("u1")

	result := callToolAllowError(t, env.srv, "save_answer", map[string]any{})
	if result == nil {
		return
	}
	if !result.IsError {
		t.Fatal("expected error result for missing content")
	}
}

func TestNavigation(t *testing.T) {
	env := newTestEnv(t)
	env.interview.Start("u1")

	result := callTool(t, env.srv, "next_question", map[string]any{})
	if !result.IsError || !strings.Contains(extractText(result), "blocked") {
		t.Fatalf("expected blocked error, got %q", extractText(result))
	}

	env.interview.SaveAnswer("childhood_001", "小镇", core.AnswerOpts{})
	var out moveOutput
	decode(t, callTool(t, env.srv, "next_question", map[string]any{}), &out)
	if out.CurrentQuestionID != "childhood_002" {
		t.Errorf("current question = %q, want childhood_002", out.CurrentQuestionID)
	}

	decode(t, callTool(t, env.srv, "previous_question", map[string]any{}), &out)
	if out.CurrentQuestionID != "childhood_001" {
		t.Errorf("current question = %q, want childhood_001", out.CurrentQuestionID)
	}

	result = callTool(t, env.srv, "previous_question", map[string]any{})
	if !result.IsError || !strings.Contains(extractText(result), "unchanged") {
		t.Errorf("expected unchanged error at first question, got %q", extractText(result))
	}
}

func TestAdvanceStage(t *testing.T) {
	env := newTestEnv(t)
	env.interview.Start("u1")

	if result := callTool(t, env.srv, "advance_stage", map[string]any{}); !result.IsError {
		t.Fatal("expected advance to be blocked")
	}

	for _, id := range []string{"childhood_001", "childhood_002", "childhood_003"} {
		env.interview.SaveAnswer(id, "回答", core.AnswerOpts{})
	}
	var out moveOutput
	decode(t, callTool(t, env.srv, "advance_stage", map[string]any{}), &out)
	if out.CurrentStage != "education" || out.CurrentQuestionID != "education_001" || out.Finished {
		t.Errorf("output = %+v", out)
	}
}

func TestJumpToStage(t *testing.T) {
	env := newTestEnv(t)
	env.interview.Start("u1")

	var out moveOutput
	decode(t, callTool(t, env.srv, "jump_to_stage", map[string]any{"stage": "reflection"}), &out)
	if out.CurrentStage != "reflection" || out.CurrentQuestionID != "reflection_001" {
		t.Errorf("output = %+v", out)
	}

	result := callTool(t, env.srv, "jump_to_stage", map[string]any{"stage": "retirement"})
	if !result.IsError || !strings.Contains(extractText(result), "unknown stage") {
		t.Errorf("expected unknown stage error, got %q", extractText(result))
	}
}

func TestAnalyzeAnswer_DoesNotSave(t *testing.T) {
	env := newTestEnv(t)
	env.interview.Start("u1")

	var out analysisOutput
	decode(t, callTool(t, env.srv, "analyze_answer", map[string]any{
		"question_id": "career_001",
		"content":     "2005年我在北京找到第一份工作，当时很辛苦，但是我觉得很有成就感。",
	}), &out)

	if out.Stage != "career" || out.Score == 0 {
		t.Errorf("analysis = %+v", out)
	}
	if len(out.KeyInfo.Places) == 0 {
		t.Error("expected a place in key info")
	}
	if len(env.interview.Answers()) != 0 {
		t.Error("analyze_answer must not store an answer")
	}
}

func TestAnalyzeAnswer_NeedsQuestionWithoutSession(t *testing.T) {
	env := newTestEnv(t)

	result := callTool(t, env.srv, "analyze_answer", map[string]any{"content": "内容"})
	if !result.IsError {
		t.Fatal("expected error without question id or session")
	}
}

func TestGenerateBiography(t *testing.T) {
	env := newTestEnv(t)

	if result := callTool(t, env.srv, "generate_biography", map[string]any{}); !result.IsError {
		t.Fatal("expected error without answers")
	}

	env.interview.Start("u1")
	env.interview.SaveAnswer("childhood_001", "我第一次去游乐园，那天很开心。", core.AnswerOpts{})
	env.interview.SaveAnswer("career_001", "工作很辛苦，但是取得了成功。", core.AnswerOpts{})

	var out biographyOutput
	decode(t, callTool(t, env.srv, "generate_biography", map[string]any{"style": "family"}), &out)

	if out.Title != "张三的人生传记" || out.Style != "family" {
		t.Errorf("biography = %+v", out)
	}
	if len(out.Chapters) != 2 || out.Chapters[0].Stage != "childhood" || out.Chapters[1].Stage != "career" {
		t.Errorf("chapters = %+v", out.Chapters)
	}
	if out.WordCount == 0 || out.Content == "" {
		t.Error("expected content")
	}

	result := callTool(t, env.srv, "generate_biography", map[string]any{"style": "epic"})
	if !result.IsError {
		t.Error("expected error for unknown style")
	}
}

func TestListStyles(t *testing.T) {
	env := newTestEnv(t)

	var out listStylesOutput
	decode(t, callTool(t, env.srv, "list_styles", map[string]any{}), &out)
	if out.Count != 3 || len(out.Styles) != 3 {
		t.Errorf("styles = %+v", out)
	}
}

func TestGetMetrics(t *testing.T) {
	env := newTestEnv(t)

	result := callTool(t, env.srv, "get_metrics", map[string]any{})
	if !result.IsError {
		t.Fatal("expected error without metrics calculator")
	}

	oldest := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	env.srv.svc.Metrics = &fakeMetricsCalculator{metrics: &observability.Metrics{
		SessionsStarted:    1,
		AnswersSaved:       12,
		AvgCompleteness:    72.5,
		BiographiesByStyle: map[string]int{"classic": 2},
		ExportsByFormat:    map[string]int{"html": 1},
		EventCount:         40,
		OldestEvent:        &oldest,
	}}

	var out metricsOutput
	decode(t, callTool(t, env.srv, "get_metrics", map[string]any{"since": "30d"}), &out)
	if out.AnswersSaved != 12 || out.AvgCompleteness != 72.5 || out.BiographiesByStyle["classic"] != 2 {
		t.Errorf("metrics = %+v", out)
	}
	if out.OldestEvent != "2025-01-15T10:00:00Z" {
		t.Errorf("oldest = %q", out.OldestEvent)
	}

	if result := callTool(t, env.srv, "get_metrics", map[string]any{"since": "2w"}); !result.IsError {
		t.Error("expected error for unsupported suffix")
	}
}

func TestGetAlerts(t *testing.T) {
	env := newTestEnv(t)
	env.srv.svc.Alerts = &fakeAlertEngine{alerts: []observability.Alert{{
		ID:          "export-failures",
		Condition:   "export_failures",
		Severity:    observability.SeverityHigh,
		Message:     "1 biography export(s) failed in the last 24 hours",
		TriggeredAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}}}

	var out getAlertsOutput
	decode(t, callTool(t, env.srv, "get_alerts", map[string]any{}), &out)
	if out.Count != 1 || out.Alerts[0].Severity != "high" || out.Alerts[0].TriggeredAt != "2025-03-01T12:00:00Z" {
		t.Errorf("alerts = %+v", out)
	}
}

func TestRefreshSeesOtherWriters(t *testing.T) {
	store := storage.NewMemStore()
	catalog := core.DefaultQuestionCatalog()
	other := core.NewInterviewManager(catalog, store, nil)
	env := newTestEnv(t)
	env.srv.svc.Interview = core.NewInterviewManager(catalog, store, nil)

	other.Start("u2")
	other.SaveAnswer("childhood_001", "另一个进程写入的回答", core.AnswerOpts{})

	var out progressOutput
	decode(t, callTool(t, env.srv, "get_progress", map[string]any{}), &out)
	if out.State != string(core.StateActive) || out.AnsweredQuestions != 1 {
		t.Errorf("progress = %+v", out)
	}
}

func TestParseSince(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
		approx  time.Duration
	}{
		{"7d", false, 7 * 24 * time.Hour},
		{"24h", false, 24 * time.Hour},
		{"d", true, 0},
		{"xd", true, 0},
		{"3m", true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSince(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			diff := time.Since(got) - tt.approx
			if diff < -time.Minute || diff > time.Minute {
				t.Errorf("parseSince(%q) off by %v", tt.in, diff)
			}
		})
	}
}
