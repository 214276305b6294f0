package models

// Emotion is the coarse bucket an answer falls into.
type Emotion string

const (
	EmotionNone     Emotion = ""
	EmotionPositive Emotion = "positive"
	EmotionNegative Emotion = "negative"
	EmotionGrowth   Emotion = "growth"
)

// KeyInfo holds the de-duplicated tokens found in an answer, one set per facet.
type KeyInfo struct {
	Keywords       []string `yaml:"keywords" json:"keywords"`
	Emotions       []string `yaml:"emotions" json:"emotions"`
	TimeReferences []string `yaml:"time_references" json:"time_references"`
	People         []string `yaml:"people" json:"people"`
	Places         []string `yaml:"places" json:"places"`
}

// Completeness is the four-bucket richness score of an answer.
type Completeness struct {
	Score       int      `yaml:"score" json:"score"`
	IsComplete  bool     `yaml:"is_complete" json:"is_complete"`
	Suggestions []string `yaml:"suggestions" json:"suggestions"`
}

// AnswerAnalysis bundles everything the analysis engine derives from one answer.
type AnswerAnalysis struct {
	QuestionID   string       `json:"question_id"`
	Stage        Stage        `json:"stage"`
	Emotion      Emotion      `json:"emotion"`
	KeyInfo      KeyInfo      `json:"key_info"`
	Completeness Completeness `json:"completeness"`
	FollowUps    []string     `json:"follow_ups"`
	Hints        []string     `json:"hints"`
	Suggestions  []string     `json:"suggestions,omitempty"`
}
