// Package roadmap turns free-text provider replies into typed career roadmaps.
package roadmap

import "strings"

type Resource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type Milestone struct {
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	EstimatedDuration string     `json:"estimated_duration"`
	Skills            []string   `json:"skills"`
	Resources         []Resource `json:"resources"`
	Prerequisites     []string   `json:"prerequisites"`
}

type Draft struct {
	Title       string      `json:"title"`
	ShortTitle  string      `json:"short_title,omitempty"`
	Description string      `json:"description"`
	Field       string      `json:"field"`
	Milestones  []Milestone `json:"milestones"`
}

const (
	DefaultDuration = "To be determined"
	DefaultField    = "Your chosen field"
)

// Fallback is the canned plan used whenever generation fails. It depends only
// on the field display name.
func Fallback(field string) Draft {
	field = strings.TrimSpace(field)
	if field == "" {
		field = DefaultField
	}
	d := Draft{
		Title:       "Career Path in " + field,
		Description: "A personalized roadmap for your career in " + field,
		Field:       field,
		Milestones: []Milestone{{
			Title:             "Foundation Building",
			Description:       "Build foundational knowledge and skills in " + field,
			EstimatedDuration: "3-6 months",
			Skills:            []string{"basic skills", "fundamental concepts"},
			Resources: []Resource{
				{Title: "Online courses"},
				{Title: "Books"},
				{Title: "Tutorials"},
			},
			Prerequisites: []string{},
		}},
	}
	d.ShortTitle = TwoWords(d.Title)
	return d
}

// TwoWords returns the first two words of title.
func TwoWords(title string) string {
	w := strings.Fields(title)
	if len(w) > 2 {
		w = w[:2]
	}
	return strings.Join(w, " ")
}
