package conversation

import "career-mentor/internal/roadmap"

type EventKind string

const (
	EventReply       EventKind = "reply"
	EventRejected    EventKind = "rejected"
	EventRateLimited EventKind = "rate_limited"
	EventRoadmap     EventKind = "roadmap"
)

// Event describes something the engine did. Observers must not block.
type Event struct {
	Kind       EventKind
	Session    string
	Identity   string
	Stage      Stage
	Message    string
	Reply      string
	Provider   string
	Fallback   bool
	Milestones int
	// Roadmap is set on EventRoadmap.
	Roadmap *roadmap.Draft
}

type Observer func(Event)
