package core

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yishu-dev/yishu/pkg/models"
)

// ExtractKeyInfo scans content for the five key information facets. Each
// facet is a de-duplicated set of matches.
func ExtractKeyInfo(content string) models.KeyInfo {
	return models.KeyInfo{
		Keywords:       uniqueMatches(keywordPatterns, content),
		Emotions:       uniqueMatches(emotionPatterns, content),
		TimeReferences: uniqueMatches(timePatterns, content),
		People:         uniqueMatches(peoplePatterns, content),
		Places:         uniqueMatches(placePatterns, content),
	}
}

// ClassifyEmotion returns the first emotion bucket, in table order, that has
// any keyword in content. It is an early-exit heuristic, not a scorer.
func ClassifyEmotion(content string) models.Emotion {
	content = strings.ToLower(content)
	for _, b := range emotionBuckets {
		if containsAny(content, b.keywords) {
			return b.emotion
		}
	}
	return models.EmotionNone
}

// ScoreCompleteness rates content 0-100 in four 25-point buckets and lists a
// suggestion for every bucket that failed. It is deterministic.
func ScoreCompleteness(content string) models.Completeness {
	c := models.Completeness{Suggestions: []string{}}

	if runeLen(content) >= shortAnswerRunes {
		c.Score += completenessBucketPoints
	} else {
		c.Suggestions = append(c.Suggestions, suggestLength)
	}
	if completenessEmotion.MatchString(content) {
		c.Score += completenessBucketPoints
	} else {
		c.Suggestions = append(c.Suggestions, suggestEmotion)
	}
	if completenessDetail.MatchString(content) {
		c.Score += completenessBucketPoints
	} else {
		c.Suggestions = append(c.Suggestions, suggestDetail)
	}
	if completenessReflection.MatchString(content) {
		c.Score += completenessBucketPoints
	} else {
		c.Suggestions = append(c.Suggestions, suggestReflection)
	}

	c.IsComplete = c.Score >= completeThreshold
	return c
}

// QuestionHints returns the question's own follow-ups followed by the stage's
// generic hints, at most five in total.
func QuestionHints(q models.Question) []string {
	hints := make([]string, 0, maxHints)
	hints = append(hints, q.FollowUps...)
	hints = append(hints, stageHints[q.Stage]...)
	if len(hints) > maxHints {
		hints = hints[:maxHints]
	}
	return hints
}

// ContentSuggestions returns writing suggestions for a partially typed
// answer. Nothing is suggested until at least ten characters are typed.
func ContentSuggestions(stage models.Stage, partial string) []string {
	if runeLen(partial) < minSuggestionRunes {
		return nil
	}
	s := contentSuggestions[stage]
	if len(s) == 0 {
		return nil
	}
	return append([]string(nil), s...)
}

// AnswerAnalyzer runs the full analysis of one answer.
type AnswerAnalyzer interface {
	Analyze(ctx context.Context, q models.Question, content string) (*models.AnswerAnalysis, error)
}

type answerAnalyzer struct {
	followUps *FollowUpEngine
	latency   time.Duration
	timeout   time.Duration
}

// NewAnswerAnalyzer creates an AnswerAnalyzer. latency simulates the wait of
// a real inference call; timeout bounds the whole analysis (0 disables it).
func NewAnswerAnalyzer(followUps *FollowUpEngine, latency, timeout time.Duration) AnswerAnalyzer {
	return &answerAnalyzer{
		followUps: followUps,
		latency:   latency,
		timeout:   timeout,
	}
}

// Analyze waits for the simulated latency, then derives follow-ups, key info,
// completeness, emotion and hints. It fails only if ctx ends first.
func (a *answerAnalyzer) Analyze(ctx context.Context, q models.Question, content string) (*models.AnswerAnalysis, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	if err := sleepContext(ctx, a.latency); err != nil {
		return nil, fmt.Errorf("analyzing answer to %s: %w", q.ID, err)
	}

	return &models.AnswerAnalysis{
		QuestionID:   q.ID,
		Stage:        q.Stage,
		Emotion:      ClassifyEmotion(content),
		KeyInfo:      ExtractKeyInfo(content),
		Completeness: ScoreCompleteness(content),
		FollowUps:    a.followUps.Generate(content, q.Stage),
		Hints:        QuestionHints(q),
		Suggestions:  ContentSuggestions(q.Stage, content),
	}, nil
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func uniqueMatches(patterns []*regexp.Regexp, content string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, p := range patterns {
		for _, m := range p.FindAllString(content, -1) {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out
}

func containsAny(content string, words []string) bool {
	for _, w := range words {
		if strings.Contains(content, w) {
			return true
		}
	}
	return false
}

// runeLen counts characters rather than bytes; for CJK text a character is
// roughly a word.
func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
