package models

// InputKind tells a front end which widget to render for a question.
type InputKind string

const (
	InputText     InputKind = "text"
	InputTextarea InputKind = "textarea"
	InputSelect   InputKind = "select"
	InputVoice    InputKind = "voice"
)

// Question is an immutable catalog entry. IDs are unique across the whole
// catalog and the catalog order within a stage is the navigation order.
type Question struct {
	ID          string    `yaml:"id" json:"id"`
	Text        string    `yaml:"text" json:"text"`
	Kind        InputKind `yaml:"type" json:"type"`
	Stage       Stage     `yaml:"stage" json:"stage"`
	Required    bool      `yaml:"required" json:"required"`
	Placeholder string    `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
	Options     []string  `yaml:"options,omitempty" json:"options,omitempty"`
	FollowUps   []string  `yaml:"follow_ups,omitempty" json:"follow_ups,omitempty"`
	Keywords    []string  `yaml:"keywords,omitempty" json:"keywords,omitempty"`
}
