package integration

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/yishu-dev/yishu/internal/core"
)

// ErrEmptyTranscript is returned when a transcript file holds no final result.
var ErrEmptyTranscript = errors.New("transcript contains no recognized speech")

// transcriptLine is one result written by an external recognizer. Interim
// results are marked with "partial" and ignored.
type transcriptLine struct {
	Type       string  `json:"type"`
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
}

// fileCapturer reads dictation results from a JSONL transcript file produced
// by a recognizer running outside the process.
type fileCapturer struct {
	path string
}

// NewFileSpeechCapturer creates a SpeechCapturer backed by the JSONL
// transcript at path.
func NewFileSpeechCapturer(path string) core.SpeechCapturer {
	return &fileCapturer{path: path}
}

func (c *fileCapturer) Name() string { return "file" }

// IsAvailable reports whether the transcript file exists.
func (c *fileCapturer) IsAvailable() bool {
	if c.path == "" {
		return false
	}
	info, err := os.Stat(c.path)
	return err == nil && !info.IsDir()
}

// Capture joins every final result in the file. The confidence of the last
// final result is reported, matching how streaming recognizers refine their
// estimate as they go.
func (c *fileCapturer) Capture(ctx context.Context) (core.Transcript, error) {
	if err := ctx.Err(); err != nil {
		return core.Transcript{}, err
	}

	f, err := os.Open(c.path) //nolint:gosec // G304: path from configuration
	if err != nil {
		return core.Transcript{}, fmt.Errorf("opening transcript %s: %w", c.path, err)
	}
	defer func() { _ = f.Close() }()

	var parts []string
	confidence := 0.0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry transcriptLine
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		if entry.Type == "partial" {
			continue
		}
		text := strings.TrimSpace(entry.Transcript)
		if text == "" {
			continue
		}
		parts = append(parts, text)
		confidence = entry.Confidence
	}
	if err := scanner.Err(); err != nil {
		return core.Transcript{}, fmt.Errorf("reading transcript %s: %w", c.path, err)
	}
	if len(parts) == 0 {
		return core.Transcript{}, fmt.Errorf("reading transcript %s: %w", c.path, ErrEmptyTranscript)
	}

	return core.Transcript{
		Text:       strings.Join(parts, ""),
		Confidence: confidence,
		Provider:   c.Name(),
	}, nil
}
