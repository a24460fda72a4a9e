package storage

import (
	"encoding/json"
	"time"
)

// Kinds of recorded events.
const (
	KindReply       = "reply"
	KindRejected    = "rejected"
	KindRateLimited = "rate_limited"
	KindRoadmap     = "roadmap"
)

// Event is one line of the interaction log. Reply events carry the accepted
// user message and the assistant response; roadmap events carry the draft.
// Events are expected to be appended in chronological order.
type Event struct {
	Timestamp         time.Time       `json:"timestamp"`
	Kind              string          `json:"kind"`
	SessionID         string          `json:"session_id"`
	Identity          string          `json:"identity"`
	Stage             string          `json:"stage,omitempty"`
	UserMessage       string          `json:"user_message,omitempty"`
	AssistantResponse string          `json:"assistant_response,omitempty"`
	Provider          string          `json:"provider,omitempty"`
	Fallback          bool            `json:"fallback,omitempty"`
	Milestones        int             `json:"milestones,omitempty"`
	Roadmap           json.RawMessage `json:"roadmap,omitempty"`
}

// Recorder abstracts persistence of interaction events.
// LoadEvents should return events in chronological order.
// Implementations must be safe for concurrent use.
type Recorder interface {
	AppendEvent(event Event) error
	LoadEvents() ([]Event, error)
}
