package conversation

import (
	"career-mentor/internal/prompt"
)

type (
	Stage   = prompt.Stage
	Profile = prompt.Profile
)

const (
	StageInterests         = prompt.StageInterests
	StagePreferredField    = prompt.StagePreferredField
	StageValuesMotivation  = prompt.StageValuesMotivation
	StageWorkStyle         = prompt.StageWorkStyle
	StageLongTermVision    = prompt.StageLongTermVision
	StageRoadmapGeneration = prompt.StageRoadmapGeneration
	StageMentoring         = prompt.StageMentoring
)

func ParseStage(v string) (Stage, error) { return prompt.ParseStage(v) }

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
	Seq  int    `json:"seq"`
}

// StageFor maps the number of user turns to the stage the conversation is in.
func StageFor(userTurns int) Stage {
	switch {
	case userTurns < 0:
		return StageInterests
	case userTurns < prompt.QuestionStages:
		return Stage(userTurns)
	case userTurns == prompt.QuestionStages:
		return StageRoadmapGeneration
	default:
		return StageMentoring
	}
}

func CountUserTurns(turns []Turn) int {
	n := 0
	for _, t := range turns {
		if t.Role == RoleUser {
			n++
		}
	}
	return n
}

// Current is the stage whose question the next user message answers.
func Current(turns []Turn) Stage {
	return StageFor(CountUserTurns(turns))
}

// ExtractProfile assigns the first five user turns to the interview answers
// in order and keeps the rest as additional context.
func ExtractProfile(turns []Turn) Profile {
	var p Profile
	n := 0
	for _, t := range turns {
		if t.Role != RoleUser {
			continue
		}
		if n < prompt.QuestionStages {
			p.Set(Stage(n), t.Text)
		} else {
			p.AdditionalContext = append(p.AdditionalContext, t.Text)
		}
		n++
	}
	return p
}
