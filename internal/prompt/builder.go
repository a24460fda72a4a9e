// Package prompt renders the system and user prompts sent to the providers.
// Everything here is pure: no I/O, no clock, no randomness.
package prompt

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"career-mentor/internal/fields"
)

type Prompt struct {
	System string
	User   string
}

const (
	DefaultRoadmapTitle = "Career Development"
	DefaultField        = "Your chosen field"
	DefaultRecentTurns  = 5

	// GenerationSystem is the system prompt for roadmap generation.
	GenerationSystem = "You are a career counselor who creates detailed, actionable career roadmaps. " +
		"You break career paths into specific milestones with concrete resources."

	// MentoringFallback is sent when no provider answers a mentoring message.
	MentoringFallback = "I'm here to help you with your career journey. " +
		"Could you share a bit more about what you are working on right now and where you feel stuck?"
)

// JSONShape is the reply format demanded from the model for roadmap generation.
const JSONShape = `Return ONLY a JSON object, with no markdown fences and no text before or after it, in exactly this shape:
{
  "title": "Career path title",
  "description": "Brief engaging description",
  "field": "Primary field or industry",
  "milestones": [
    {
      "title": "Milestone title",
      "description": "What this milestone achieves",
      "estimated_duration": "X months",
      "skills": ["skill 1", "skill 2"],
      "resources": [{"title": "Course, book or website", "url": "https://..."}],
      "prerequisites": ["earlier milestone or skill"]
    }
  ]
}
Include 5 to 8 milestones in the order they should be completed.`

type stageText struct {
	system   string
	template string // {answer} is the previous stage answer
	example  string
}

var stageTexts = map[Stage]stageText{
	StageInterests: {
		system: "You are a warm, encouraging career counselor helping someone discover their ideal career path. " +
			"You ask thoughtful questions that help people understand their strengths and interests.",
		template: "Start the conversation by asking about their interests and strengths: which subjects or activities " +
			"they enjoy most, where they excel, and what makes them feel energized.\n\n" +
			"Keep your response conversational, supportive and under 100 words.",
		example: "Hi! I'm here to help you discover your ideal career path. Let's start by getting to know you. " +
			"What subjects or activities do you enjoy most and feel you excel at? What makes you feel energized and engaged?",
	},
	StagePreferredField: {
		system: "You are a career counselor helping someone explore career fields. " +
			"You encourage them to think broadly about possibilities.",
		template: "Based on the user's interests and strengths: \"{answer}\"\n\n" +
			"Now ask about their preferred field. Help them think broadly about the work environment or impact they would like to have.\n\n" +
			"Keep your response conversational, supportive and under 100 words.",
		example: "That's great to hear! Now, if you could work in any field, what would it be? " +
			"Even if you're unsure, describe the kind of work environment or impact you'd like to have.",
	},
	StageValuesMotivation: {
		system: "You are a career counselor helping someone explore their values and motivations.",
		template: "The user is interested in: \"{answer}\"\n\n" +
			"Now ask what values matter to them at work, for example creativity, security, helping people, " +
			"continuous learning, work-life balance or leadership.\n\n" +
			"Keep your response conversational, supportive and under 100 words.",
		example: "Excellent! Now let's talk about what matters most to you in a career. What values are important to you at work? " +
			"For example creativity, security, helping people, continuous learning, work-life balance or leadership.",
	},
	StageWorkStyle: {
		system: "You are a career counselor helping someone understand their work style preferences.",
		template: "The user values: \"{answer}\"\n\n" +
			"Now ask about their work style: remote work, teamwork, solo deep work or a mix, and what their ideal workday looks like.\n\n" +
			"Keep your response conversational, supportive and under 100 words.",
		example: "I love that! Now, how do you like to work? Do you prefer remote work, being part of a team, " +
			"solo deep work or a mix? What would your ideal workday look like?",
	},
	StageLongTermVision: {
		system: "You are a career counselor helping someone think about their long-term career vision.",
		template: "The user prefers: \"{answer}\"\n\n" +
			"Now explore their long-term vision: where they see themselves in 5-10 years, what achievements would make them proud " +
			"and what impact they want to have.\n\n" +
			"Keep your response conversational, supportive and under 100 words.",
		example: "Perfect! Now let's think about the bigger picture. Where do you see yourself in 5-10 years? " +
			"What achievements would make you proud, and what impact do you want to have?",
	},
}

// Builder renders prompts from the field table.
type Builder struct {
	table  *fields.Table
	recent int
}

func NewBuilder(table *fields.Table, recentTurns int) *Builder {
	if recentTurns <= 0 {
		recentTurns = DefaultRecentTurns
	}
	return &Builder{table: table, recent: recentTurns}
}

// Stage builds the question prompt for a question stage. Each stage quotes the
// answer given at the stage before it; when that answer is empty the canned
// question is used as the user prompt instead.
func (b *Builder) Stage(s Stage, p Profile) (Prompt, error) {
	st, ok := stageTexts[s]
	if !ok {
		return Prompt{}, errors.Errorf("no question prompt for stage %s", s)
	}
	if s == StageInterests {
		return Prompt{System: st.system, User: st.template}, nil
	}
	prev := strings.TrimSpace(p.Answer(s - 1))
	if prev == "" {
		return Prompt{System: st.system, User: st.example}, nil
	}
	return Prompt{System: st.system, User: strings.ReplaceAll(st.template, "{answer}", prev)}, nil
}

// Example returns the canned question for a question stage, or "" for any
// other stage.
func Example(s Stage) string {
	return stageTexts[s].example
}

// Generation renders the roadmap prompt for field from the collected answers.
func (b *Builder) Generation(field string, answers map[string]string) string {
	cfg := b.table.Lookup(field)
	r := strings.NewReplacer(
		"{field}", cfg.Name,
		"{answers}", renderAnswers(cfg.Questions, answers),
		"{json_shape}", JSONShape,
	)
	out := r.Replace(cfg.Template)
	if !strings.Contains(cfg.Template, "{json_shape}") {
		out += "\n\n" + JSONShape
	}
	return out
}

func renderAnswers(qs []fields.Question, answers map[string]string) string {
	var sb strings.Builder
	seen := make(map[string]bool, len(qs))
	for _, q := range qs {
		seen[q.Key] = true
		if a := strings.TrimSpace(answers[q.Key]); a != "" {
			sb.WriteString("- " + q.Text + "\n  " + a + "\n")
		}
	}
	extra := make([]string, 0, len(answers))
	for k := range answers {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		if a := strings.TrimSpace(answers[k]); a != "" {
			sb.WriteString("- " + fields.DisplayName(k) + ":\n  " + a + "\n")
		}
	}
	if sb.Len() == 0 {
		return "- No answers were provided."
	}
	return strings.TrimRight(sb.String(), "\n")
}

type MentoringInput struct {
	RoadmapTitle string
	Field        string
	Recent       []string
	Message      string
}

func (b *Builder) Mentoring(in MentoringInput) Prompt {
	title := strings.TrimSpace(in.RoadmapTitle)
	if title == "" {
		title = DefaultRoadmapTitle
	}
	field := strings.TrimSpace(in.Field)
	if field == "" {
		field = DefaultField
	}
	recent := in.Recent
	if len(recent) > b.recent {
		recent = recent[len(recent)-b.recent:]
	}

	var sb strings.Builder
	sb.WriteString("You are mentoring someone with this career roadmap:\n\n")
	sb.WriteString("Roadmap: " + title + "\n")
	sb.WriteString("Field: " + field + "\n\n")
	if len(recent) > 0 {
		sb.WriteString("Recent conversation:\n" + strings.Join(recent, "\n") + "\n\n")
	}
	sb.WriteString("User's current message: \"" + in.Message + "\"\n\n")
	sb.WriteString("Provide a helpful, encouraging response that addresses their question, relates it to their roadmap " +
		"and gives actionable advice. Keep your response conversational, supportive and under 200 words.")

	return Prompt{
		System: "You are an experienced career mentor providing ongoing guidance. You are supportive, specific and actionable.",
		User:   sb.String(),
	}
}

func (b *Builder) Greeting() Prompt {
	return Prompt{
		System: "You are a warm, welcoming career counselor starting a new conversation.",
		User: "Greet someone who just started creating a new career roadmap. Explain briefly that you will ask five short questions " +
			"about their interests, preferred field, values, work style and long-term vision, then ask the first one: " +
			"what subjects or activities they enjoy most and feel they excel at.\n\nKeep your response under 100 words.",
	}
}

// GreetingFallback is the canned opening used when no provider answers.
func GreetingFallback() string {
	return "Hi there! Welcome to your career journey. I'll ask you a few questions about your interests, values and goals, " +
		"then build a step-by-step roadmap for you.\n\n" + Example(StageInterests)
}

func (b *Builder) TitleSummary(title string) Prompt {
	return Prompt{
		System: "You write very short labels. Reply with the label only.",
		User:   "Summarize the following career path title into two words: " + title,
	}
}
