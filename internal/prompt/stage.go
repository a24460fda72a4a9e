package prompt

import (
	"strings"

	"github.com/pkg/errors"
)

// Stage is a step of the interview. The order is significant: the n-th user
// answer always belongs to the n-th stage.
type Stage int

const (
	StageInterests Stage = iota
	StagePreferredField
	StageValuesMotivation
	StageWorkStyle
	StageLongTermVision
	StageRoadmapGeneration
	StageMentoring
)

// QuestionStages is the number of stages that ask the user a fixed question.
const QuestionStages = int(StageRoadmapGeneration)

var stageNames = [...]string{
	StageInterests:         "interests_strengths",
	StagePreferredField:    "preferred_field",
	StageValuesMotivation:  "values_motivation",
	StageWorkStyle:         "work_style",
	StageLongTermVision:    "long_term_vision",
	StageRoadmapGeneration: "roadmap_generation",
	StageMentoring:         "mentoring",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

func (s Stage) Valid() bool { return s >= StageInterests && s <= StageMentoring }

// IsQuestion reports whether the stage asks one of the fixed interview questions.
func (s Stage) IsQuestion() bool { return s >= StageInterests && s < StageRoadmapGeneration }

func ParseStage(v string) (Stage, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	for i, name := range stageNames {
		if name == v {
			return Stage(i), nil
		}
	}
	return 0, errors.Errorf("unknown stage %q", v)
}

func (s Stage) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Stage) UnmarshalText(b []byte) error {
	v, err := ParseStage(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Answer keys, one per question stage.
const (
	KeyInterests       = "interests_strengths"
	KeyPreferredField  = "preferred_field"
	KeyValues          = "values_motivation"
	KeyWorkStyle       = "work_style"
	KeyLongTermVision  = "long_term_vision"
	KeyAdditionalInput = "additional_context"
)

// Profile holds the interview answers.
type Profile struct {
	InterestsStrengths string
	PreferredField     string
	ValuesMotivation   string
	WorkStyle          string
	LongTermVision     string
	AdditionalContext  []string
}

// Map returns every answer key, empty answers included.
func (p Profile) Map() map[string]string {
	return map[string]string{
		KeyInterests:       p.InterestsStrengths,
		KeyPreferredField:  p.PreferredField,
		KeyValues:          p.ValuesMotivation,
		KeyWorkStyle:       p.WorkStyle,
		KeyLongTermVision:  p.LongTermVision,
		KeyAdditionalInput: strings.Join(p.AdditionalContext, "\n"),
	}
}

// Answer returns the answer given at stage s.
func (p Profile) Answer(s Stage) string {
	switch s {
	case StageInterests:
		return p.InterestsStrengths
	case StagePreferredField:
		return p.PreferredField
	case StageValuesMotivation:
		return p.ValuesMotivation
	case StageWorkStyle:
		return p.WorkStyle
	case StageLongTermVision:
		return p.LongTermVision
	}
	return ""
}

// Set stores the answer for a question stage and ignores other stages.
func (p *Profile) Set(s Stage, answer string) {
	switch s {
	case StageInterests:
		p.InterestsStrengths = answer
	case StagePreferredField:
		p.PreferredField = answer
	case StageValuesMotivation:
		p.ValuesMotivation = answer
	case StageWorkStyle:
		p.WorkStyle = answer
	case StageLongTermVision:
		p.LongTermVision = answer
	}
}
