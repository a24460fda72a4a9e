package telegram

import (
	"fmt"
	"strings"

	"career-mentor/internal/conversation"
	"career-mentor/internal/fields"
	"career-mentor/internal/prompt"
	"career-mentor/internal/ratelimit"
	"career-mentor/internal/roadmap"
)

// FormatRoadmap renders a draft as plain text.
func FormatRoadmap(d roadmap.Draft) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🗺 %s\n", d.Title)
	if d.Field != "" {
		fmt.Fprintf(&sb, "Field: %s\n", d.Field)
	}
	if d.Description != "" {
		fmt.Fprintf(&sb, "\n%s\n", d.Description)
	}
	for i, m := range d.Milestones {
		fmt.Fprintf(&sb, "\n%d. %s (%s)\n", i+1, m.Title, m.EstimatedDuration)
		if m.Description != "" {
			fmt.Fprintf(&sb, "%s\n", m.Description)
		}
		if len(m.Prerequisites) > 0 {
			fmt.Fprintf(&sb, "Before you start: %s\n", strings.Join(m.Prerequisites, ", "))
		}
		if len(m.Skills) > 0 {
			fmt.Fprintf(&sb, "Skills: %s\n", strings.Join(m.Skills, ", "))
		}
		for _, r := range m.Resources {
			if r.URL != "" {
				fmt.Fprintf(&sb, "• %s: %s\n", r.Title, r.URL)
			} else {
				fmt.Fprintf(&sb, "• %s\n", r.Title)
			}
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func FormatStatus(st conversation.Status) string {
	var sb strings.Builder
	switch {
	case st.Stage.IsQuestion():
		fmt.Fprintf(&sb, "Interview: question %d of %d (%s).\n", int(st.Stage)+1, prompt.QuestionStages, st.Stage)
	default:
		fmt.Fprintf(&sb, "Stage: %s.\n", st.Stage)
	}
	fmt.Fprintf(&sb, "Messages so far: %d.\n", st.MessageCount)
	if st.RoadmapReady {
		sb.WriteString("Your roadmap is ready, see /roadmap.\n")
	}
	p := st.Profile.Map()
	for _, key := range []string{
		prompt.KeyInterests, prompt.KeyPreferredField, prompt.KeyValues,
		prompt.KeyWorkStyle, prompt.KeyLongTermVision,
	} {
		if v := p[key]; v != "" {
			fmt.Fprintf(&sb, "- %s: %s\n", fields.DisplayName(key), v)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func FormatLimit(info ratelimit.Info) string {
	return fmt.Sprintf("You have used %d of %d messages per %s. %d left, the counter resets around %s.",
		info.Used, info.Limit, info.Window, info.Remaining, info.ResetAt.UTC().Format("15:04 MST"))
}

func FormatRateLimited(info ratelimit.Info) string {
	return fmt.Sprintf("You've reached the limit of %d messages per %s. Please try again after %s.",
		info.Limit, info.Window, info.ResetAt.UTC().Format("15:04 MST"))
}

// FormatFields lists the fields with dedicated questions.
func FormatFields(t *fields.Table) string {
	var sb strings.Builder
	sb.WriteString("Fields with tailored questions:\n")
	for _, key := range t.Keys() {
		fmt.Fprintf(&sb, "- %s (/field %s)\n", t.Lookup(key).Name, strings.ReplaceAll(key, "_", " "))
	}
	sb.WriteString("Any other field works too with the general template.")
	return sb.String()
}
