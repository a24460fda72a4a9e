package roadmap

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrNoJSON       = errors.New("reply contains no JSON object")
	ErrInvalidShape = errors.New("reply is not a roadmap")
)

// Parse extracts a draft from a provider reply. Code fences are stripped and,
// when the whole reply is not JSON, the outermost brace pair is tried.
func Parse(text string) (Draft, error) {
	raw, err := decodeObject(stripFences(text))
	if err != nil {
		return Draft{}, err
	}
	items, ok := raw["milestones"].([]any)
	if !ok || len(items) == 0 {
		return Draft{}, errors.Wrap(ErrInvalidShape, "milestones must be a non-empty list")
	}

	d := Draft{
		Title:       str(raw["title"]),
		ShortTitle:  firstStr(raw, "short_title", "summarized_title"),
		Description: str(raw["description"]),
		Field:       str(raw["field"]),
	}
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		d.Milestones = append(d.Milestones, milestone(m, len(d.Milestones)+1))
	}
	if len(d.Milestones) == 0 {
		return Draft{}, errors.Wrap(ErrInvalidShape, "no milestone is an object")
	}
	return d, nil
}

func milestone(m map[string]any, n int) Milestone {
	ms := Milestone{
		Title:             str(m["title"]),
		Description:       str(m["description"]),
		EstimatedDuration: firstStr(m, "estimated_duration", "duration", "timeline"),
		Skills:            strList(m["skills"]),
		Resources:         []Resource{},
		Prerequisites:     strList(m["prerequisites"]),
	}
	if ms.Title == "" {
		ms.Title = fmt.Sprintf("Milestone %d", n)
	}
	if ms.EstimatedDuration == "" {
		ms.EstimatedDuration = DefaultDuration
	}
	if list, ok := m["resources"].([]any); ok {
		for _, r := range list {
			if res, ok := NormalizeResource(r); ok {
				ms.Resources = append(ms.Resources, res)
			}
		}
	}
	return ms
}

// NormalizeResource coerces a resource entry into {title, url}. Bare strings
// become a title with an empty url; objects need a title and may carry the
// url as "url" or "link". Anything else is dropped.
func NormalizeResource(v any) (Resource, bool) {
	switch r := v.(type) {
	case string:
		t := strings.TrimSpace(r)
		return Resource{Title: t}, t != ""
	case map[string]any:
		t := str(r["title"])
		if t == "" {
			return Resource{}, false
		}
		return Resource{Title: t, URL: firstStr(r, "url", "link")}, true
	}
	return Resource{}, false
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func decodeObject(s string) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(s), &raw); err == nil && raw != nil {
		return raw, nil
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return nil, ErrNoJSON
	}
	raw = nil
	if err := json.Unmarshal([]byte(s[start:end+1]), &raw); err != nil || raw == nil {
		return nil, errors.Wrapf(ErrNoJSON, "outermost object: %v", err)
	}
	return raw, nil
}

func str(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func firstStr(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := str(m[k]); s != "" {
			return s
		}
	}
	return ""
}

func strList(v any) []string {
	out := []string{}
	list, ok := v.([]any)
	if !ok {
		return out
	}
	for _, it := range list {
		switch x := it.(type) {
		case string:
			if s := strings.TrimSpace(x); s != "" {
				out = append(out, s)
			}
		case float64, bool:
			out = append(out, fmt.Sprint(x))
		}
	}
	return out
}
