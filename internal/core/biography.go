package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yishu-dev/yishu/pkg/models"
)

// DefaultSubjectName stands in for the subject when no name is given.
const DefaultSubjectName = "主人公"

const biographyClosing = "这就是我的人生故事，平凡而又珍贵的人生历程。愿这些文字能够传递给后人，成为家族记忆的一部分。"

// keyEventRule maps trigger substrings to a key event label.
type keyEventRule struct {
	triggers []string
	label    string
}

var keyEventRules = []keyEventRule{
	{triggers: []string{"第一次"}, label: "重要的第一次经历"},
	{triggers: []string{"最难忘"}, label: "难忘的回忆"},
	{triggers: []string{"转折点"}, label: "人生转折点"},
	{triggers: []string{"成功", "成就"}, label: "重要成就"},
	{triggers: []string{"挫折", "困难"}, label: "克服困难"},
}

// BiographyGenerator turns a set of answers into a narrative document.
type BiographyGenerator interface {
	Generate(ctx context.Context, answers []models.Answer, styleKey, subjectName string) (*models.Biography, error)
	ListStyles() []models.StyleInfo
}

type biographyGenerator struct {
	catalog        QuestionCatalog
	styles         *StyleRegistry
	chapterLatency time.Duration
	timeout        time.Duration
	logger         EventLogger
	now            func() time.Time
}

// NewBiographyGenerator creates a generator that assigns answers to stages
// through catalog. chapterLatency is waited once per chapter; timeout bounds
// a whole generation (0 disables it). logger may be nil.
func NewBiographyGenerator(catalog QuestionCatalog, styles *StyleRegistry, chapterLatency, timeout time.Duration, logger EventLogger) BiographyGenerator {
	return &biographyGenerator{
		catalog:        catalog,
		styles:         styles,
		chapterLatency: chapterLatency,
		timeout:        timeout,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Generate builds a biography. An unknown style fails with ErrStyleNotFound
// and a cancelled context fails the whole call; no partial artifact is
// returned in either case.
func (g *biographyGenerator) Generate(ctx context.Context, answers []models.Answer, styleKey, subjectName string) (*models.Biography, error) {
	if styleKey == "" {
		styleKey = DefaultStyleKey
	}
	if strings.TrimSpace(subjectName) == "" {
		subjectName = DefaultSubjectName
	}
	tmpl, ok := g.styles.Lookup(styleKey)
	if !ok {
		return nil, fmt.Errorf("generating biography with style %q: %w", styleKey, ErrStyleNotFound)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	grouped, unplaced := g.groupByStage(answers)
	if len(unplaced) > 0 {
		logEvent(g.logger, "biography.unplaced_answers", map[string]any{
			"question_ids": unplaced,
			"count":        len(unplaced),
		})
	}

	bio := &models.Biography{
		Title:    subjectName + "的人生传记",
		Subject:  subjectName,
		Style:    styleKey,
		Chapters: []models.Chapter{},
		Unplaced: unplaced,
	}

	for _, st := range g.catalog.Stages() {
		stageAnswers := grouped[st]
		if len(stageAnswers) == 0 {
			continue
		}
		if err := sleepContext(ctx, g.chapterLatency); err != nil {
			return nil, fmt.Errorf("generating %s chapter: %w", st, err)
		}
		ch := buildChapter(st, stageAnswers, tmpl)
		bio.Chapters = append(bio.Chapters, ch)
		bio.WordCount += ch.WordCount
	}

	opening := strings.Replace(tmpl.Opening, "{name}", subjectName, 1)
	bio.Content = assembleDocument(opening, bio.Chapters)
	bio.GeneratedAt = g.now()

	logEvent(g.logger, "biography.generated", map[string]any{
		"style":      styleKey,
		"chapters":   len(bio.Chapters),
		"word_count": bio.WordCount,
	})
	return bio, nil
}

func (g *biographyGenerator) ListStyles() []models.StyleInfo {
	return g.styles.List()
}

// groupByStage assigns each answer to a stage by catalog lookup. Ids the
// catalog does not know fall back to the stage name embedded in the id;
// anything still unmatched is returned as unplaced.
func (g *biographyGenerator) groupByStage(answers []models.Answer) (map[models.Stage][]models.Answer, []string) {
	grouped := make(map[models.Stage][]models.Answer)
	var unplaced []string
	for _, a := range answers {
		st, ok := g.catalog.StageOf(a.QuestionID)
		if !ok {
			st, ok = inferStage(a.QuestionID)
		}
		if !ok {
			unplaced = append(unplaced, a.QuestionID)
			continue
		}
		grouped[st] = append(grouped[st], a)
	}
	return grouped, unplaced
}

func inferStage(questionID string) (models.Stage, bool) {
	for _, st := range models.AllStages() {
		if strings.Contains(questionID, string(st)) {
			return st, true
		}
	}
	return "", false
}

func buildChapter(stage models.Stage, answers []models.Answer, tmpl models.StyleTemplate) models.Chapter {
	var b strings.Builder
	b.WriteString(tmpl.ChapterIntros[stage])
	b.WriteString("\n\n")
	for _, a := range answers {
		b.WriteString(narrate(a.Content, tmpl.Config))
		b.WriteString("\n\n")
	}
	body := strings.TrimSpace(b.String())

	return models.Chapter{
		ID:        "chapter_" + string(stage),
		Title:     tmpl.ChapterTitles[stage],
		Content:   body,
		Stage:     stage,
		WordCount: runeLen(body),
		KeyEvents: extractKeyEvents(answers),
	}
}

// extractKeyEvents scans the raw answers, before any style transform.
func extractKeyEvents(answers []models.Answer) []string {
	var events []string
	for _, a := range answers {
		for _, rule := range keyEventRules {
			if containsAny(a.Content, rule.triggers) {
				events = append(events, rule.label)
			}
		}
	}
	return dedupe(events)
}

func assembleDocument(opening string, chapters []models.Chapter) string {
	var b strings.Builder
	b.WriteString(opening)
	b.WriteString("\n\n")
	for _, ch := range chapters {
		b.WriteString(ch.Title)
		b.WriteString("\n\n")
		b.WriteString(ch.Content)
		b.WriteString("\n\n")
	}
	b.WriteString(biographyClosing)
	return b.String()
}
