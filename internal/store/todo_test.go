package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTodoStoreAdd(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantText string
	}{
		{name: "plain text", text: "Buy milk", wantText: "Buy milk"},
		{name: "empty text falls back to dash", text: "", wantText: DefaultTodoText},
		{name: "whitespace is kept", text: "  ", wantText: "  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewTodoStore()
			before := s.Len()

			todo := s.Add(tt.text)

			assert.Equal(t, before+1, s.Len())
			assert.Equal(t, tt.wantText, todo.Text)
			assert.NotEmpty(t, todo.ID)

			list := s.List()
			require.Len(t, list, 1)
			assert.Equal(t, todo, list[0])
		})
	}
}

func TestTodoStoreIDsAreUnique(t *testing.T) {
	s := NewTodoStore()
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		todo := s.Add(fmt.Sprintf("todo %d", i))
		require.False(t, seen[todo.ID], "duplicate id %s", todo.ID)
		seen[todo.ID] = true
	}
}

func TestTodoStoreDelete(t *testing.T) {
	s := NewTodoStore()
	a := s.Add("a")
	b := s.Add("b")
	c := s.Add("c")

	t.Run("unknown id leaves list unchanged", func(t *testing.T) {
		assert.False(t, s.Delete("does-not-exist"))
		assert.Equal(t, []Todo{a, b, c}, s.List())
	})

	t.Run("existing id removes only that entry", func(t *testing.T) {
		assert.True(t, s.Delete(b.ID))
		assert.Equal(t, []Todo{a, c}, s.List())
	})

	t.Run("deleting twice is a no-op", func(t *testing.T) {
		assert.False(t, s.Delete(b.ID))
		assert.Equal(t, []Todo{a, c}, s.List())
	})
}

func TestTodoStoreListIsACopy(t *testing.T) {
	s := NewTodoStore()
	s.Add("original")

	list := s.List()
	list[0].Text = "changed"

	assert.Equal(t, "original", s.List()[0].Text)
}

func TestTodoStoreConcurrentAdds(t *testing.T) {
	s := NewTodoStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.Add(fmt.Sprintf("todo %d", n))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, s.Len())
}
