package commands

import (
	"strings"
)

// SkillLevel is an opaque rating tag injected into prompts.
type SkillLevel string

const (
	Novice       SkillLevel = "novice"
	Intermediate SkillLevel = "intermediate"
	Advanced     SkillLevel = "advanced"
	Expert       SkillLevel = "expert"
)

const DefaultSkillLevel = Novice

var ratings = map[SkillLevel]string{
	Novice:       "100-800",
	Intermediate: "800-1500",
	Advanced:     "1500-2000",
	Expert:       "2000+",
}

// SkillLevels returns the known levels from weakest to strongest.
func SkillLevels() []SkillLevel {
	return []SkillLevel{Novice, Intermediate, Advanced, Expert}
}

// ParseSkillLevel accepts a label ("intermediate") or its rating range ("800-1500").
func ParseSkillLevel(value string) (SkillLevel, bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "beginner" {
		return Novice, true
	}
	for level, rating := range ratings {
		if normalized == string(level) || normalized == rating {
			return level, true
		}
	}
	return "", false
}

func (level SkillLevel) Rating() string {
	return ratings[level]
}

func (level SkillLevel) IsKnown() bool {
	_, ok := ratings[level]
	return ok
}

func (level SkillLevel) String() string {
	return string(level)
}
