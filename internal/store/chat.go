package store

import "sync"

// ChatMessage is one chat line. It doubles as the inbound WebSocket payload.
type ChatMessage struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Valid reports whether both fields are non-empty.
func (m ChatMessage) Valid() bool {
	return m.Name != "" && m.Message != ""
}

// ChatStore is the append-only chat history.
type ChatStore struct {
	mu       sync.RWMutex
	messages []ChatMessage
	limit    int
}

// NewChatStore returns an empty history. limit <= 0 keeps every message;
// a positive limit keeps only the most recent limit messages.
func NewChatStore(limit int) *ChatStore {
	if limit < 0 {
		limit = 0
	}
	return &ChatStore{limit: limit}
}

// Append adds msg to the history and returns a snapshot of the history
// including it.
func (s *ChatStore) Append(msg ChatMessage) []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, msg)
	if s.limit > 0 && len(s.messages) > s.limit {
		s.messages = append([]ChatMessage(nil), s.messages[len(s.messages)-s.limit:]...)
	}

	return append([]ChatMessage(nil), s.messages...)
}

// List returns a copy of the history, oldest first.
func (s *ChatStore) List() []ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]ChatMessage(nil), s.messages...)
}

// Len returns the number of stored messages.
func (s *ChatStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.messages)
}
