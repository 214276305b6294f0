package core

import (
	"context"
	"fmt"
	"sync/atomic"
)

// DefaultMinConfidence is the confidence below which a transcript is rejected.
const DefaultMinConfidence = 0.7

// Transcript is the result of one speech capture.
type Transcript struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Provider   string  `json:"provider"`
}

// SpeechCapturer is an external speech recognition provider.
type SpeechCapturer interface {
	Name() string
	IsAvailable() bool
	Capture(ctx context.Context) (Transcript, error)
}

// Dictation applies the capture policy on top of a provider: one capture at
// a time, fallback when the primary is unavailable, and a confidence floor.
type Dictation struct {
	primary       SpeechCapturer
	fallback      SpeechCapturer
	minConfidence float64
	notifier      Notifier
	logger        EventLogger
	busy          atomic.Bool
}

// NewDictation creates a Dictation. fallback, notifier and logger may be nil.
func NewDictation(primary, fallback SpeechCapturer, minConfidence float64, notifier Notifier, logger EventLogger) *Dictation {
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	return &Dictation{
		primary:       primary,
		fallback:      fallback,
		minConfidence: minConfidence,
		notifier:      notifier,
		logger:        logger,
	}
}

// Capture records one answer. A transcript below the confidence floor is
// returned together with ErrLowConfidence so the caller can offer a retry.
func (d *Dictation) Capture(ctx context.Context) (Transcript, error) {
	if !d.busy.CompareAndSwap(false, true) {
		return Transcript{}, ErrCaptureInProgress
	}
	defer d.busy.Store(false)

	capturer, err := d.choose()
	if err != nil {
		notify(d.notifier, NoticeError, "语音识别不可用")
		logEvent(d.logger, "speech.failed", map[string]any{"error": err.Error()})
		return Transcript{}, err
	}

	t, err := capturer.Capture(ctx)
	if err != nil {
		notify(d.notifier, NoticeError, "语音识别失败，请检查麦克风权限")
		logEvent(d.logger, "speech.failed", map[string]any{
			"provider": capturer.Name(),
			"error":    err.Error(),
		})
		return Transcript{}, fmt.Errorf("capturing speech with %s: %w", capturer.Name(), err)
	}
	if t.Provider == "" {
		t.Provider = capturer.Name()
	}

	if t.Confidence < d.minConfidence {
		notify(d.notifier, NoticeWarning, "语音识别置信度较低，请重新录制")
		logEvent(d.logger, "speech.low_confidence", map[string]any{
			"provider":   t.Provider,
			"confidence": t.Confidence,
		})
		return t, ErrLowConfidence
	}

	notify(d.notifier, NoticeInfo, "语音识别成功")
	logEvent(d.logger, "speech.captured", map[string]any{
		"provider":   t.Provider,
		"confidence": t.Confidence,
		"length":     runeLen(t.Text),
	})
	return t, nil
}

// Busy reports whether a capture is in flight.
func (d *Dictation) Busy() bool {
	return d.busy.Load()
}

func (d *Dictation) choose() (SpeechCapturer, error) {
	if d.primary != nil && d.primary.IsAvailable() {
		return d.primary, nil
	}
	if d.fallback != nil && d.fallback.IsAvailable() {
		notify(d.notifier, NoticeWarning, "语音识别不可用，将使用模拟功能")
		return d.fallback, nil
	}
	return nil, ErrSpeechUnavailable
}
