package models

import "fmt"

// Stage identifies one of the five life periods an interview walks through.
// The declaration order of the constants is the interview order.
type Stage string

const (
	StageChildhood    Stage = "childhood"
	StageEducation    Stage = "education"
	StageCareer       Stage = "career"
	StageRelationship Stage = "relationship"
	StageReflection   Stage = "reflection"
)

var stageOrder = []Stage{
	StageChildhood,
	StageEducation,
	StageCareer,
	StageRelationship,
	StageReflection,
}

// AllStages returns the stages in interview order.
func AllStages() []Stage {
	out := make([]Stage, len(stageOrder))
	copy(out, stageOrder)
	return out
}

// Index returns the position of s in the interview order, or -1 if s is not
// a known stage.
func (s Stage) Index() int {
	for i, st := range stageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is one of the five known stages.
func (s Stage) Valid() bool {
	return s.Index() >= 0
}

// ParseStage converts a user-supplied string into a Stage.
func ParseStage(s string) (Stage, error) {
	st := Stage(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown stage %q, must be one of: childhood, education, career, relationship, reflection", s)
	}
	return st, nil
}

// StageInfo is display metadata for a stage. It never drives sequencing.
type StageInfo struct {
	Key              Stage  `yaml:"key" json:"key"`
	Title            string `yaml:"title" json:"title"`
	Description      string `yaml:"description" json:"description"`
	AgeRange         string `yaml:"age_range" json:"age_range"`
	EstimatedMinutes int    `yaml:"estimated_minutes" json:"estimated_minutes"`
}
