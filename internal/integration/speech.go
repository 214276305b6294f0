package integration

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/yishu-dev/yishu/internal/core"
)

// mockConfidence is the confidence reported for every canned transcript.
const mockConfidence = 0.95

var mockTranscripts = []string{
	"我记得小时候最喜欢的就是和朋友们一起玩捉迷藏，那种纯真的快乐现在想起来还是很温暖。",
	"大学时期遇到的那位老师真的改变了我的人生轨迹，他教会我的不仅仅是知识，更是做人的道理。",
	"第一份工作虽然很辛苦，但是学到了很多东西，也让我明白了什么叫做责任和担当。",
	"和爱人相遇的那一刻，我就知道她就是我要找的那个人，那种感觉真的很奇妙。",
	"回顾这一生，我觉得最重要的是要保持一颗善良的心，对人对事都要真诚。",
}

// mockCapturer returns a canned transcript after a simulated recording delay.
type mockCapturer struct {
	delay time.Duration
	mu    sync.Mutex
	rng   *rand.Rand
}

// NewMockSpeechCapturer creates a SpeechCapturer that is always available.
// A zero seed picks transcripts from a clock-seeded source.
func NewMockSpeechCapturer(delay time.Duration, seed int64) core.SpeechCapturer {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &mockCapturer{
		delay: delay,
		rng:   rand.New(rand.NewPCG(uint64(seed), 0)),
	}
}

func (m *mockCapturer) Name() string { return "mock" }

func (m *mockCapturer) IsAvailable() bool { return true }

func (m *mockCapturer) Capture(ctx context.Context) (core.Transcript, error) {
	if m.delay > 0 {
		timer := time.NewTimer(m.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return core.Transcript{}, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return core.Transcript{}, err
	}

	m.mu.Lock()
	text := mockTranscripts[m.rng.IntN(len(mockTranscripts))]
	m.mu.Unlock()

	return core.Transcript{Text: text, Confidence: mockConfidence, Provider: m.Name()}, nil
}
