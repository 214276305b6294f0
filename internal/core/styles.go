package core

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/yishu-dev/yishu/pkg/models"
	"gopkg.in/yaml.v3"
)

//go:embed data/styles.yaml
var builtinStyles []byte

// DefaultStyleKey is used when no style is requested.
const DefaultStyleKey = "classic"

type styleFile struct {
	Styles []models.StyleTemplate `yaml:"styles"`
}

// StyleRegistry holds the named style templates in registration order.
type StyleRegistry struct {
	mu     sync.RWMutex
	order  []string
	styles map[string]models.StyleTemplate
}

// NewStyleRegistry returns an empty registry.
func NewStyleRegistry() *StyleRegistry {
	return &StyleRegistry{styles: make(map[string]models.StyleTemplate)}
}

// DefaultStyleRegistry returns a registry holding the classic, family and
// inspirational styles.
func DefaultStyleRegistry() *StyleRegistry {
	r := NewStyleRegistry()
	if err := r.load(builtinStyles); err != nil {
		panic(fmt.Sprintf("built-in styles: %v", err))
	}
	return r
}

// LoadFile registers every style in a YAML file. Styles whose key already
// exists replace the earlier definition.
func (r *StyleRegistry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading styles file %s: %w", path, err)
	}
	if err := r.load(data); err != nil {
		return fmt.Errorf("loading styles file %s: %w", path, err)
	}
	return nil
}

func (r *StyleRegistry) load(data []byte) error {
	var f styleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parsing styles: %w", err)
	}
	for _, t := range f.Styles {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// Register adds or replaces a style. Every stage needs a title and an intro.
func (r *StyleRegistry) Register(t models.StyleTemplate) error {
	t.Key = strings.TrimSpace(t.Key)
	if t.Key == "" {
		return fmt.Errorf("registering style: key must not be empty")
	}
	var missing []string
	for _, st := range models.AllStages() {
		if t.ChapterTitles[st] == "" || t.ChapterIntros[st] == "" {
			missing = append(missing, string(st))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("registering style %s: missing chapter title or intro for: %s", t.Key, strings.Join(missing, ", "))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.styles[t.Key]; !exists {
		r.order = append(r.order, t.Key)
	}
	r.styles[t.Key] = t
	return nil
}

// Lookup returns the style registered under key.
func (r *StyleRegistry) Lookup(key string) (models.StyleTemplate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.styles[key]
	return t, ok
}

// List enumerates the registered styles in registration order.
func (r *StyleRegistry) List() []models.StyleInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.StyleInfo, 0, len(r.order))
	for _, k := range r.order {
		t := r.styles[k]
		out = append(out, models.StyleInfo{Key: k, Name: t.Name, Description: t.Description})
	}
	return out
}

// Text transforms applied to each answer.

// toneReplacements are applied in order, pair by pair.
var toneReplacements = map[models.Tone][][2]string{
	models.ToneFormal: {
		{"我觉得", "我认为"},
		{"很", "非常"},
		{"挺", "相当"},
		{"特别", "尤其"},
	},
	models.ToneWarm: {
		{"那时候", "那个时候"},
		{"现在", "如今"},
	},
	models.ToneMotivational: {
		{"困难", "挑战"},
		{"失败", "挫折"},
		{"问题", "机遇"},
	},
}

const expandClause = "，这让我深深地感受到了人生的丰富多彩。"

var innerClause = regexp.MustCompile(`，[^，。]*，`)

func applyTone(text string, tone models.Tone) string {
	for _, pair := range toneReplacements[tone] {
		text = strings.ReplaceAll(text, pair[0], pair[1])
	}
	return text
}

func applySentenceLength(text string, length models.SentenceLength) string {
	switch length {
	case models.SentenceLong:
		return strings.ReplaceAll(text, "。", expandClause)
	case models.SentenceShort:
		text = innerClause.ReplaceAllString(text, "。")
		return strings.ReplaceAll(text, "。。", "。")
	}
	return text
}

// narrate turns one answer into a narrative fragment for the given style.
func narrate(content string, cfg models.StyleConfig) string {
	return applySentenceLength(applyTone(content, cfg.Tone), cfg.SentenceLength)
}
