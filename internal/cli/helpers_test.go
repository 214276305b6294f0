package cli

import (
	"io"
	"os"
	"testing"
	"time"

	"github.com/yishu-dev/yishu/internal/core"
	"github.com/yishu-dev/yishu/internal/storage"
)

// captureStdout captures stdout output during fn execution.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("creating pipe: %v", err)
	}
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = origStdout

	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading pipe: %v", err)
	}
	return string(out)
}

// withInterview wires a real interview engine over an in-memory store into
// the package-level service vars and restores the originals on cleanup.
func withInterview(t *testing.T) core.InterviewManager {
	t.Helper()

	origInterview, origFlow, origBio := Interview, Flow, Biographer
	origSubject, origUser, origStyle := SubjectName, UserID, DefaultStyle
	t.Cleanup(func() {
		Interview, Flow, Biographer = origInterview, origFlow, origBio
		SubjectName, UserID, DefaultStyle = origSubject, origUser, origStyle
	})

	catalog := core.DefaultQuestionCatalog()
	Interview = core.NewInterviewManager(catalog, storage.NewMemStore(), nil)
	analyzer := core.NewAnswerAnalyzer(core.NewFollowUpEngine(1), 0, time.Second)
	Flow = core.NewInterviewFlow(Interview, analyzer, nil, nil)
	Biographer = core.NewBiographyGenerator(catalog, core.DefaultStyleRegistry(), 0, time.Second, nil)
	SubjectName = "张三"
	UserID = "tester"
	DefaultStyle = core.DefaultStyleKey
	return Interview
}

// answerRequired answers every required question of the current stage.
func answerRequired(t *testing.T, im core.InterviewManager) {
	t.Helper()
	for _, q := range im.CurrentQuestions() {
		if !q.Required {
			continue
		}
		if r := im.SaveAnswer(q.ID, "那是1985年的夏天，我和妈妈在北京的家里度过了快乐的时光。", core.AnswerOpts{}); !r.Applied() {
			t.Fatalf("saving %s: %s", q.ID, r)
		}
	}
}
