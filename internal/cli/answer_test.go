package cli

import (
	"strings"
	"testing"

	"github.com/yishu-dev/yishu/internal/core"
)

func resetAnswerFlags(t *testing.T) {
	t.Helper()
	origQ, origStdin, origAudio, origAttach := answerQuestion, answerStdin, answerAudio, answerAttach
	origAnalyze := analyzeQuestion
	t.Cleanup(func() {
		answerQuestion, answerStdin, answerAudio, answerAttach = origQ, origStdin, origAudio, origAttach
		analyzeQuestion = origAnalyze
	})
	answerQuestion, answerStdin, answerAudio, answerAttach = "", false, "", nil
	analyzeQuestion = ""
}

func TestAnswerCmd_NilFlow(t *testing.T) {
	orig := Flow
	defer func() { Flow = orig }()
	Flow = nil

	err := answerCmd.RunE(answerCmd, []string{"text"})
	if err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Fatalf("expected not initialized error, got %v", err)
	}
}

func TestAnswerCmd_SavesCurrentQuestion(t *testing.T) {
	im := withInterview(t)
	resetAnswerFlags(t)
	im.Start("tester")

	var err error
	out := captureStdout(t, func() {
		err = answerCmd.RunE(answerCmd, []string{"1985年,", "我出生在杭州，和妈妈一起度过了快乐的童年。"})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, ok := im.Answer("childhood_001")
	if !ok {
		t.Fatal("expected childhood_001 to be answered")
	}
	if !strings.HasPrefix(a.Content, "1985年, 我出生在杭州") {
		t.Errorf("content = %q, want args joined with a space", a.Content)
	}
	if !strings.Contains(out, "Completeness:") {
		t.Errorf("expected analysis in output:\n%s", out)
	}
}

func TestAnswerCmd_ExplicitQuestionAndRefs(t *testing.T) {
	im := withInterview(t)
	resetAnswerFlags(t)
	im.Start("tester")

	answerQuestion = "childhood_004"
	answerAudio = "rec-01.wav"
	answerAttach = []string{"photo.jpg"}
	captureStdout(t, func() {
		if err := answerCmd.RunE(answerCmd, []string{"小时候最喜欢放风筝"}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	a, ok := im.Answer("childhood_004")
	if !ok {
		t.Fatal("expected childhood_004 to be answered")
	}
	if a.AudioRef != "rec-01.wav" {
		t.Errorf("AudioRef = %q, want rec-01.wav", a.AudioRef)
	}
	if len(a.Attachments) != 1 || a.Attachments[0] != "photo.jpg" {
		t.Errorf("Attachments = %v, want [photo.jpg]", a.Attachments)
	}
	if im.IsQuestionAnswered("childhood_001") {
		t.Error("the current question should not have been answered")
	}
}

func TestAnswerCmd_Stdin(t *testing.T) {
	im := withInterview(t)
	resetAnswerFlags(t)
	im.Start("tester")

	answerStdin = true
	answerCmd.SetIn(strings.NewReader("  我出生在一个小山村。\n"))
	defer answerCmd.SetIn(nil)

	captureStdout(t, func() {
		if err := answerCmd.RunE(answerCmd, nil); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
	a, ok := im.Answer("childhood_001")
	if !ok || a.Content != "我出生在一个小山村。" {
		t.Errorf("answer = %+v, want trimmed stdin content", a)
	}
}

func TestAnswerCmd_Errors(t *testing.T) {
	tests := []struct {
		name     string
		start    bool
		question string
		args     []string
		wantErr  string
	}{
		{"no text", true, "", nil, "answer text is required"},
		{"unknown question", true, "childhood_999", []string{"x"}, "unknown question"},
		{"no session", false, "", []string{"x"}, "no current question"},
		{"no session with explicit question", false, "childhood_001", []string{"x"}, "yishu start"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			im := withInterview(t)
			resetAnswerFlags(t)
			if tt.start {
				im.Start("tester")
			}
			answerQuestion = tt.question

			err := answerCmd.RunE(answerCmd, tt.args)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestAnswerCmd_BlankAnswerNotSaved(t *testing.T) {
	im := withInterview(t)
	resetAnswerFlags(t)
	im.Start("tester")

	out := captureStdout(t, func() {
		if err := answerCmd.RunE(answerCmd, []string{"   "}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
	if im.IsQuestionAnswered("childhood_001") {
		t.Error("a blank answer must not be saved")
	}
	if !strings.Contains(out, "empty answer was not saved") {
		t.Errorf("expected notice about the empty answer:\n%s", out)
	}
}

func TestAnalyzeCmd_DoesNotSave(t *testing.T) {
	im := withInterview(t)
	resetAnswerFlags(t)
	im.Start("tester")

	out := captureStdout(t, func() {
		if err := analyzeCmd.RunE(analyzeCmd, []string{"1990年我在上海和爸爸一起生活，很快乐"}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
	if im.IsQuestionAnswered("childhood_001") {
		t.Error("analyze must not save the answer")
	}
	if !strings.Contains(out, "Completeness:") {
		t.Errorf("expected analysis output:\n%s", out)
	}
}

func TestAnalyzeCmd_ExplicitQuestionWithoutSession(t *testing.T) {
	withInterview(t)
	resetAnswerFlags(t)
	analyzeQuestion = "career_001"

	captureStdout(t, func() {
		if err := analyzeCmd.RunE(analyzeCmd, []string{"我的第一份工作是老师"}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestTargetQuestion(t *testing.T) {
	im := withInterview(t)
	im.Start("tester")
	im.SaveAnswer("childhood_001", "x", core.AnswerOpts{})
	im.NextQuestion()

	got, err := targetQuestion("")
	if err != nil || got != "childhood_002" {
		t.Errorf("targetQuestion(\"\") = %q, %v; want childhood_002", got, err)
	}
	got, err = targetQuestion("reflection_004")
	if err != nil || got != "reflection_004" {
		t.Errorf("targetQuestion(reflection_004) = %q, %v", got, err)
	}
}
