package models

import "time"

// Tone selects the substitution table applied to every answer.
type Tone string

const (
	ToneFormal       Tone = "formal"
	ToneWarm         Tone = "warm"
	ToneMotivational Tone = "motivational"
	ToneCasual       Tone = "casual"
)

// SentenceLength selects the length transform applied after the tone transform.
type SentenceLength string

const (
	SentenceShort  SentenceLength = "short"
	SentenceMedium SentenceLength = "medium"
	SentenceLong   SentenceLength = "long"
	SentenceVaried SentenceLength = "varied"
)

// StyleConfig describes the voice of a style. Vocabulary and emotional
// intensity are descriptive only.
type StyleConfig struct {
	Tone               Tone           `yaml:"tone" json:"tone"`
	Vocabulary         string         `yaml:"vocabulary" json:"vocabulary"`
	SentenceLength     SentenceLength `yaml:"sentence_length" json:"sentence_length"`
	EmotionalIntensity string         `yaml:"emotional_intensity" json:"emotional_intensity"`
	LiteraryDevices    []string       `yaml:"literary_devices,omitempty" json:"literary_devices,omitempty"`
}

// StyleTemplate is a named bundle of chapter titles, intros and voice settings.
type StyleTemplate struct {
	Key           string           `yaml:"key" json:"key"`
	Name          string           `yaml:"name" json:"name"`
	Description   string           `yaml:"description" json:"description"`
	Opening       string           `yaml:"opening" json:"opening"`
	ChapterTitles map[Stage]string `yaml:"chapter_titles" json:"chapter_titles"`
	ChapterIntros map[Stage]string `yaml:"chapter_intros" json:"chapter_intros"`
	Config        StyleConfig      `yaml:"config" json:"config"`
}

// StyleInfo is the public summary of a registered style.
type StyleInfo struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Chapter is the narrative for a single stage.
type Chapter struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Stage     Stage    `json:"stage"`
	WordCount int      `json:"word_count"`
	KeyEvents []string `json:"key_events"`
}

// Biography is a generated artifact. Every generation produces a new value.
type Biography struct {
	Title       string    `json:"title"`
	Subject     string    `json:"subject"`
	Style       string    `json:"style"`
	Content     string    `json:"content"`
	WordCount   int       `json:"word_count"`
	Chapters    []Chapter `json:"chapters"`
	GeneratedAt time.Time `json:"generated_at"`
	// Unplaced lists question ids whose answers could not be assigned to
	// any stage and therefore appear in no chapter.
	Unplaced []string `json:"unplaced,omitempty"`
}
