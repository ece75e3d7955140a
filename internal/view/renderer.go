package view

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/Tyrowin/hxchat/internal/store"
)

// layoutName is the template every page is rendered through.
const layoutName = "index"

// Pages that can be passed to Renderer.Page. "error" uses the error partial as
// its main content.
const (
	PageHome  = "home"
	PageChat  = "chat"
	PageAbout = "about"
	PageError = "error"
)

// Fragments that can be passed to Renderer.Fragment.
const (
	FragmentTodoList    = "todolist"
	FragmentMessageList = "messagelist"
)

// PageData is the data every page and fragment is rendered with.
type PageData struct {
	// UseLayout wraps the page in the full HTML document. When false only the
	// page content is rendered.
	UseLayout bool
	Active    string
	Todos     []store.Todo
	Messages  []store.ChatMessage
	Date      string
	Status    int
}

// Renderer holds the parsed templates. It is safe for concurrent use.
type Renderer struct {
	base  *template.Template
	pages map[string]*template.Template
}

// NewRenderer parses the layout and all partials from s and binds each page
// template as "main" in its own copy of the layout.
func NewRenderer(s *Store) (*Renderer, error) {
	layout, err := s.Template(layoutName)
	if err != nil {
		return nil, err
	}

	base, err := template.New(layoutName).Parse(layout)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", layoutName, err)
	}

	for _, name := range PartialNames {
		text, err := s.Partial(name)
		if err != nil {
			return nil, err
		}
		if _, err := base.New(name).Parse(text); err != nil {
			return nil, fmt.Errorf("failed to parse partial %s: %w", name, err)
		}
	}

	sources := map[string]func(string) (string, error){
		PageHome:  s.Template,
		PageChat:  s.Template,
		PageAbout: s.Template,
		PageError: s.Partial,
	}

	r := &Renderer{
		pages: make(map[string]*template.Template, len(sources)),
	}

	for page, source := range sources {
		text, err := source(page)
		if err != nil {
			return nil, err
		}

		t, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("failed to clone layout for %s: %w", page, err)
		}
		if _, err := t.New("main").Parse(text); err != nil {
			return nil, fmt.Errorf("failed to parse page %s: %w", page, err)
		}
		r.pages[page] = t
	}

	// Fragments are rendered from a layout copy that is never executed as a
	// page, so "main" stays undefined there.
	r.base, err = base.Clone()
	if err != nil {
		return nil, fmt.Errorf("failed to clone layout: %w", err)
	}

	return r, nil
}

// Page renders the named page through the layout.
func (r *Renderer) Page(name string, data PageData) ([]byte, error) {
	t, ok := r.pages[name]
	if !ok {
		return nil, fmt.Errorf("%w: page %q", ErrTemplateNotFound, name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, layoutName, data); err != nil {
		return nil, fmt.Errorf("failed to render page %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Fragment renders a single partial without the layout.
func (r *Renderer) Fragment(name string, data any) ([]byte, error) {
	if r.base.Lookup(name) == nil {
		return nil, fmt.Errorf("%w: fragment %q", ErrTemplateNotFound, name)
	}

	var buf bytes.Buffer
	if err := r.base.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("failed to render fragment %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// TodoList renders the todo list fragment.
func (r *Renderer) TodoList(todos []store.Todo) ([]byte, error) {
	return r.Fragment(FragmentTodoList, PageData{Todos: todos})
}

// MessageList renders the chat message list fragment.
func (r *Renderer) MessageList(messages []store.ChatMessage) ([]byte, error) {
	return r.Fragment(FragmentMessageList, PageData{Messages: messages})
}
