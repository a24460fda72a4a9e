package history

import (
	"encoding/json"
	"sync"

	"career-mentor/internal/conversation"
	"career-mentor/internal/roadmap"
	"career-mentor/internal/storage"
)

type session struct {
	identity string
	field    string
	turns    []conversation.Turn
	roadmap  *roadmap.Draft
}

// Manager keeps conversation turns in memory, keyed by session id.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*session)}
}

func (m *Manager) Reset(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) AppendUser(sessionID, identity, text string) {
	m.append(sessionID, identity, conversation.RoleUser, text)
}

func (m *Manager) AppendAssistant(sessionID, identity, text string) {
	m.append(sessionID, identity, conversation.RoleAssistant, text)
}

func (m *Manager) append(sessionID, identity string, role conversation.Role, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.get(sessionID, identity)
	s.turns = append(s.turns, conversation.Turn{Role: role, Text: text, Seq: len(s.turns)})
}

// get must be called with the write lock held.
func (m *Manager) get(sessionID, identity string) *session {
	s, ok := m.sessions[sessionID]
	if !ok {
		s = &session{identity: identity}
		m.sessions[sessionID] = s
	}
	if s.identity == "" {
		s.identity = identity
	}
	return s
}

func (m *Manager) SetField(sessionID, identity, field string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.get(sessionID, identity).field = field
}

func (m *Manager) SetRoadmap(sessionID, identity string, d roadmap.Draft) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.get(sessionID, identity).roadmap = &d
}

// Session returns a copy of the stored session, ready to hand to the engine.
func (m *Manager) Session(sessionID, identity string) conversation.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := conversation.Session{ID: sessionID, Identity: identity}
	s, ok := m.sessions[sessionID]
	if !ok {
		return out
	}
	out.Field = s.field
	out.Turns = append([]conversation.Turn(nil), s.turns...)
	if s.roadmap != nil {
		d := *s.roadmap
		out.Roadmap = &d
	}
	return out
}

func (m *Manager) Turns(sessionID string) []conversation.Turn {
	return m.Session(sessionID, "").Turns
}

// Len returns the number of known sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Restore rebuilds sessions from recorded events. It returns the number of
// sessions restored.
func (m *Manager) Restore(events []storage.Event) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	for _, ev := range events {
		if ev.SessionID == "" {
			continue
		}
		switch ev.Kind {
		case storage.KindReply:
			s := m.get(ev.SessionID, ev.Identity)
			if ev.UserMessage != "" {
				s.turns = append(s.turns, conversation.Turn{Role: conversation.RoleUser, Text: ev.UserMessage, Seq: len(s.turns)})
			}
			if ev.AssistantResponse != "" {
				s.turns = append(s.turns, conversation.Turn{Role: conversation.RoleAssistant, Text: ev.AssistantResponse, Seq: len(s.turns)})
			}
		case storage.KindRoadmap:
			var d roadmap.Draft
			if len(ev.Roadmap) == 0 || json.Unmarshal(ev.Roadmap, &d) != nil {
				continue
			}
			m.get(ev.SessionID, ev.Identity).roadmap = &d
		default:
			continue
		}
		seen[ev.SessionID] = true
	}
	return len(seen)
}
