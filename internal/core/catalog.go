package core

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/yishu-dev/yishu/pkg/models"
	"gopkg.in/yaml.v3"
)

//go:embed data/questions.yaml
var defaultQuestionBank []byte

// QuestionCatalog is the read-only question bank. Stage order is fixed; the
// order of questions inside a stage is the navigation order.
type QuestionCatalog interface {
	Stages() []models.Stage
	FirstStage() models.Stage
	QuestionsForStage(stage models.Stage) []models.Question
	Question(id string) (models.Question, bool)
	StageOf(questionID string) (models.Stage, bool)
	TotalQuestionCount() int
	StageMetadata(stage models.Stage) (models.StageInfo, bool)
	NextStage(stage models.Stage) (models.Stage, bool)
	PreviousStage(stage models.Stage) (models.Stage, bool)
}

// questionBank is the on-disk YAML layout of a catalog.
type questionBank struct {
	Stages    []models.StageInfo `yaml:"stages"`
	Questions []models.Question  `yaml:"questions"`
}

type staticCatalog struct {
	info    map[models.Stage]models.StageInfo
	byStage map[models.Stage][]models.Question
	byID    map[string]models.Question
	total   int
}

// NewQuestionCatalog parses and validates a YAML question bank.
func NewQuestionCatalog(data []byte) (QuestionCatalog, error) {
	var bank questionBank
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("%w: parsing question bank: %v", ErrInvalidCatalog, err)
	}

	c := &staticCatalog{
		info:    make(map[models.Stage]models.StageInfo),
		byStage: make(map[models.Stage][]models.Question),
		byID:    make(map[string]models.Question),
	}

	var errs []string
	for _, si := range bank.Stages {
		if !si.Key.Valid() {
			errs = append(errs, fmt.Sprintf("stage %q is not a known stage", si.Key))
			continue
		}
		if _, dup := c.info[si.Key]; dup {
			errs = append(errs, fmt.Sprintf("stage %q is described twice", si.Key))
			continue
		}
		if si.EstimatedMinutes < 0 {
			errs = append(errs, fmt.Sprintf("stage %q has negative estimated_minutes", si.Key))
		}
		c.info[si.Key] = si
	}

	for i, q := range bank.Questions {
		q.ID = strings.TrimSpace(q.ID)
		switch {
		case q.ID == "":
			errs = append(errs, fmt.Sprintf("question #%d has no id", i+1))
			continue
		case !q.Stage.Valid():
			errs = append(errs, fmt.Sprintf("question %s has unknown stage %q", q.ID, q.Stage))
			continue
		case strings.TrimSpace(q.Text) == "":
			errs = append(errs, fmt.Sprintf("question %s has no text", q.ID))
			continue
		}
		if _, dup := c.byID[q.ID]; dup {
			errs = append(errs, fmt.Sprintf("question id %s is not unique", q.ID))
			continue
		}
		if q.Kind == "" {
			q.Kind = models.InputTextarea
		}
		c.byID[q.ID] = q
		c.byStage[q.Stage] = append(c.byStage[q.Stage], q)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w:\n  - %s", ErrInvalidCatalog, strings.Join(errs, "\n  - "))
	}

	c.total = len(c.byID)
	return c, nil
}

// DefaultQuestionCatalog returns the built-in five-stage question bank.
func DefaultQuestionCatalog() QuestionCatalog {
	c, err := NewQuestionCatalog(defaultQuestionBank)
	if err != nil {
		panic(fmt.Sprintf("built-in question bank: %v", err))
	}
	return c
}

// LoadQuestionCatalog reads a question bank from path, or returns the
// built-in bank when path is empty.
func LoadQuestionCatalog(path string) (QuestionCatalog, error) {
	if path == "" {
		return DefaultQuestionCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading question bank %s: %w", path, err)
	}
	c, err := NewQuestionCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("loading question bank %s: %w", path, err)
	}
	return c, nil
}

func (c *staticCatalog) Stages() []models.Stage {
	return models.AllStages()
}

func (c *staticCatalog) FirstStage() models.Stage {
	return models.AllStages()[0]
}

// QuestionsForStage returns a copy of the stage's questions in catalog order.
func (c *staticCatalog) QuestionsForStage(stage models.Stage) []models.Question {
	qs := c.byStage[stage]
	out := make([]models.Question, len(qs))
	copy(out, qs)
	return out
}

func (c *staticCatalog) Question(id string) (models.Question, bool) {
	q, ok := c.byID[id]
	return q, ok
}

func (c *staticCatalog) StageOf(questionID string) (models.Stage, bool) {
	q, ok := c.byID[questionID]
	if !ok {
		return "", false
	}
	return q.Stage, true
}

func (c *staticCatalog) TotalQuestionCount() int {
	return c.total
}

func (c *staticCatalog) StageMetadata(stage models.Stage) (models.StageInfo, bool) {
	si, ok := c.info[stage]
	return si, ok
}

func (c *staticCatalog) NextStage(stage models.Stage) (models.Stage, bool) {
	i := stage.Index()
	stages := models.AllStages()
	if i < 0 || i == len(stages)-1 {
		return "", false
	}
	return stages[i+1], true
}

func (c *staticCatalog) PreviousStage(stage models.Stage) (models.Stage, bool) {
	i := stage.Index()
	if i <= 0 {
		return "", false
	}
	return models.AllStages()[i-1], true
}
