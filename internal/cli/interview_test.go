package cli

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/yishu-dev/yishu/internal/core"
	"github.com/yishu-dev/yishu/pkg/models"
)

func updateInterview(t *testing.T, m interviewModel, msg tea.Msg) (interviewModel, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	im, ok := updated.(interviewModel)
	if !ok {
		t.Fatalf("expected interviewModel, got %T", updated)
	}
	return im, cmd
}

func TestInterviewModel_LoadsCurrentQuestion(t *testing.T) {
	im := withInterview(t)
	im.Start("tester")
	im.SaveAnswer("childhood_001", "我出生在杭州", core.AnswerOpts{})

	m := newInterviewModel()
	if !m.hasQuestion || m.question.ID != "childhood_001" {
		t.Fatalf("expected childhood_001, got %+v", m.question)
	}
	if m.textarea.Value() != "我出生在杭州" {
		t.Errorf("editor = %q, want the saved answer", m.textarea.Value())
	}
	if m.count != 4 {
		t.Errorf("count = %d, want 4 childhood questions", m.count)
	}
}

func TestInterviewModel_QuitKeys(t *testing.T) {
	im := withInterview(t)
	im.Start("tester")

	for _, key := range []tea.KeyType{tea.KeyCtrlC, tea.KeyEscape} {
		m := newInterviewModel()
		_, cmd := updateInterview(t, m, tea.KeyMsg{Type: key})
		if cmd == nil {
			t.Fatalf("%v: expected tea.Quit", key)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%v: expected tea.QuitMsg", key)
		}
	}
}

func TestInterviewModel_SubmitRoundTrip(t *testing.T) {
	im := withInterview(t)
	im.Start("tester")

	m := newInterviewModel()
	m.textarea.SetValue("1985年我在北京出生，和爸爸妈妈住在胡同里，很快乐。")

	m, cmd := updateInterview(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd == nil {
		t.Fatal("expected a submit command")
	}
	if m.busy == "" {
		t.Error("expected the model to be busy while saving")
	}

	// Keys other than quit are ignored while busy.
	m, _ = updateInterview(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
	if m.index != 0 {
		t.Errorf("index = %d, navigation should be ignored while busy", m.index)
	}

	m, _ = updateInterview(t, m, cmd())
	if m.busy != "" {
		t.Error("expected busy to clear after submission")
	}
	if !im.IsQuestionAnswered("childhood_001") {
		t.Error("expected the answer to be saved")
	}
	if m.analysis == nil {
		t.Fatal("expected analysis to be shown")
	}
	if m.overall == 0 {
		t.Error("expected overall progress to move")
	}
	if !strings.Contains(m.View(), "完整度") {
		t.Error("expected analysis panel in the view")
	}
}

func TestInterviewModel_SubmitRejected(t *testing.T) {
	withInterview(t)
	m := interviewModel{}

	m, _ = updateInterview(t, m, submittedMsg{sub: &core.Submission{
		Saved: core.Result{Outcome: core.OutcomePaused, Reason: "the interview is paused"},
	}})
	if m.notice == nil || m.notice.Level != core.NoticeWarning {
		t.Fatalf("expected warning notice, got %+v", m.notice)
	}
	if !strings.Contains(m.notice.Message, "paused") {
		t.Errorf("notice = %q, want the reason", m.notice.Message)
	}
}

func TestInterviewModel_Navigation(t *testing.T) {
	im := withInterview(t)
	im.Start("tester")

	m := newInterviewModel()
	m, _ = updateInterview(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
	if m.notice == nil || !strings.Contains(m.notice.Message, "required") {
		t.Fatalf("expected blocked notice, got %+v", m.notice)
	}

	im.SaveAnswer("childhood_001", "我出生在杭州", core.AnswerOpts{})
	m, _ = updateInterview(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
	if m.question.ID != "childhood_002" || m.index != 1 {
		t.Errorf("expected childhood_002 at index 1, got %s/%d", m.question.ID, m.index)
	}
	if m.notice != nil {
		t.Errorf("expected notice cleared after a move, got %+v", m.notice)
	}

	m, _ = updateInterview(t, m, tea.KeyMsg{Type: tea.KeyCtrlP})
	if m.question.ID != "childhood_001" {
		t.Errorf("expected childhood_001 after ctrl+p, got %s", m.question.ID)
	}

	answerRequired(t, im)
	m, _ = updateInterview(t, m, tea.KeyMsg{Type: tea.KeyCtrlA})
	if m.stage.Key != models.StageEducation {
		t.Errorf("expected education stage after ctrl+a, got %s", m.stage.Key)
	}
}

func TestInterviewModel_DictateWithoutProvider(t *testing.T) {
	im := withInterview(t)
	im.Start("tester")
	orig := Dictation
	defer func() { Dictation = orig }()
	Dictation = nil

	m := newInterviewModel()
	m, cmd := updateInterview(t, m, tea.KeyMsg{Type: tea.KeyCtrlD})
	if cmd != nil {
		t.Error("expected no command without dictation")
	}
	if m.notice == nil || m.notice.Level != core.NoticeWarning {
		t.Errorf("expected warning notice, got %+v", m.notice)
	}
}

func TestInterviewModel_Dictated(t *testing.T) {
	im := withInterview(t)
	im.Start("tester")

	tests := []struct {
		name       string
		msg        dictatedMsg
		wantText   string
		wantNotice bool
	}{
		{"appends transcript", dictatedMsg{transcript: core.Transcript{Text: "外婆家的院子"}}, "外婆家的院子", false},
		{"low confidence kept out", dictatedMsg{transcript: core.Transcript{Text: "听不清"}, err: core.ErrLowConfidence}, "", false},
		{"failure", dictatedMsg{err: errors.New("mic busy")}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newInterviewModel()
			m.busy = "正在录音..."
			m, _ = updateInterview(t, m, tt.msg)
			if m.busy != "" {
				t.Error("expected busy to clear")
			}
			if got := m.textarea.Value(); got != tt.wantText {
				t.Errorf("editor = %q, want %q", got, tt.wantText)
			}
			if (m.notice != nil) != tt.wantNotice {
				t.Errorf("notice = %+v, wantNotice %v", m.notice, tt.wantNotice)
			}
		})
	}
}

func TestInterviewModel_NoticeMsg(t *testing.T) {
	im := withInterview(t)
	im.Start("tester")

	m := newInterviewModel()
	m, _ = updateInterview(t, m, noticeMsg{notice: core.Notice{Level: core.NoticeInfo, Message: "语音识别成功"}})
	if m.notice == nil || m.notice.Message != "语音识别成功" {
		t.Fatalf("expected notice to be set, got %+v", m.notice)
	}
	if !strings.Contains(m.View(), "语音识别成功") {
		t.Error("expected the notice in the view")
	}
}

func TestInterviewModel_ViewStates(t *testing.T) {
	im := withInterview(t)

	m := newInterviewModel()
	if !strings.Contains(m.View(), "No interview session") {
		t.Error("expected empty-session view")
	}

	im.Start("tester")
	m = newInterviewModel()
	view := m.View()
	if !strings.Contains(view, m.question.Text) {
		t.Error("expected the question text in the view")
	}
	if !strings.Contains(view, "(必答)") {
		t.Error("expected the required marker")
	}

	m.textarea.SetValue("我小时候住在一个很小的村子里")
	if !strings.Contains(m.View(), "提示:") {
		t.Error("expected writing suggestions for a partial answer")
	}
}

func TestInterviewCmd_NilFlow(t *testing.T) {
	orig := Flow
	defer func() { Flow = orig }()
	Flow = nil

	err := interviewCmd.RunE(interviewCmd, nil)
	if err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Fatalf("expected not initialized error, got %v", err)
	}
}
