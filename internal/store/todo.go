// Package store holds the in-memory application state: the todo list and the
// chat history. Nothing here outlives the process.
package store

import (
	"sync"

	"github.com/google/uuid"
)

// DefaultTodoText replaces an empty todo text.
const DefaultTodoText = "-"

// Todo is a single todo list entry.
type Todo struct {
	ID   string
	Text string
}

// TodoStore is an ordered, concurrency-safe todo list.
type TodoStore struct {
	mu    sync.RWMutex
	todos []Todo
	newID func() string
}

// NewTodoStore returns an empty list that identifies todos with random UUIDs.
func NewTodoStore() *TodoStore {
	return &TodoStore{newID: uuid.NewString}
}

// Add appends a todo with a fresh id and returns it. An empty text is stored
// as DefaultTodoText.
func (s *TodoStore) Add(text string) Todo {
	if text == "" {
		text = DefaultTodoText
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	todo := Todo{ID: s.newID(), Text: text}
	s.todos = append(s.todos, todo)
	return todo
}

// Delete removes the first todo with the given id. It reports whether a todo
// was removed; an unknown id leaves the list untouched.
func (s *TodoStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, todo := range s.todos {
		if todo.ID == id {
			s.todos = append(s.todos[:i], s.todos[i+1:]...)
			return true
		}
	}
	return false
}

// List returns a copy of the todos in insertion order.
func (s *TodoStore) List() []Todo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]Todo(nil), s.todos...)
}

// Len returns the number of todos.
func (s *TodoStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.todos)
}
