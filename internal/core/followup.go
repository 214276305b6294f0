package core

import (
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/yishu-dev/yishu/pkg/models"
)

const maxFollowUps = 3

// FollowUpEngine proposes up to three follow-up prompts for an answer. The
// random source is injectable so a fixed seed gives repeatable output.
type FollowUpEngine struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewFollowUpEngine creates an engine seeded with seed, or with the clock
// when seed is 0.
func NewFollowUpEngine(seed int64) *FollowUpEngine {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return NewFollowUpEngineWithSource(rand.NewPCG(uint64(seed), uint64(seed)>>1|1))
}

// NewFollowUpEngineWithSource creates an engine drawing from src.
func NewFollowUpEngineWithSource(src rand.Source) *FollowUpEngine {
	return &FollowUpEngine{rng: rand.New(src)}
}

// Generate merges, in priority order: one random prompt per matched trigger
// category, the prompts of the detected emotion, the length prompts and one
// random depth question for the stage. The result is de-duplicated and cut
// to three.
func (e *FollowUpEngine) Generate(content string, stage models.Stage) []string {
	content = strings.ToLower(content)
	var out []string

	for _, cat := range followUpTriggers {
		if containsAny(content, cat.keywords) {
			out = append(out, e.pick(cat.prompts))
		}
	}
	out = append(out, emotionPrompts(ClassifyEmotion(content))...)
	out = append(out, lengthPrompts(content)...)
	if qs := depthQuestions[stage]; len(qs) > 0 {
		out = append(out, e.pick(qs))
	}

	out = dedupe(out)
	if len(out) > maxFollowUps {
		out = out[:maxFollowUps]
	}
	return out
}

// FollowUpCandidates returns every prompt Generate could possibly choose for
// content and stage.
func FollowUpCandidates(content string, stage models.Stage) []string {
	content = strings.ToLower(content)
	var out []string
	for _, cat := range followUpTriggers {
		if containsAny(content, cat.keywords) {
			out = append(out, cat.prompts...)
		}
	}
	out = append(out, emotionPrompts(ClassifyEmotion(content))...)
	out = append(out, lengthPrompts(content)...)
	out = append(out, depthQuestions[stage]...)
	return dedupe(out)
}

func (e *FollowUpEngine) pick(options []string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return options[e.rng.IntN(len(options))]
}

func emotionPrompts(em models.Emotion) []string {
	for _, b := range emotionBuckets {
		if b.emotion == em {
			return b.prompts
		}
	}
	return nil
}

func lengthPrompts(content string) []string {
	switch n := runeLen(content); {
	case n < shortAnswerRunes:
		return elaboratePrompts
	case n > longAnswerRunes:
		return summarizePrompts
	}
	return nil
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
