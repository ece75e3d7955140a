// Package view loads the HTML templates from disk (or the embedded copy) and
// composes them into pages and fragments.
package view

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
)

// ErrTemplateNotFound is returned when a named template or partial does not
// exist.
var ErrTemplateNotFound = errors.New("template not found")

// Template and partial names loaded by Load.
var (
	TemplateNames = []string{"index", "home", "chat", "about"}
	PartialNames  = []string{"nav", "error", "todolist", "todo", "messagelist", "message"}
)

const (
	templatesDir = "templates"
	partialsDir  = "partials"
	extension    = ".html"
)

// Store maps template and partial names to their raw text. It is filled once
// by Load and never changes afterwards.
type Store struct {
	templates map[string]string
	partials  map[string]string
}

// Load reads every name in TemplateNames from templates/ and every name in
// PartialNames from partials/ of fsys.
func Load(fsys fs.FS) (*Store, error) {
	s := &Store{
		templates: make(map[string]string, len(TemplateNames)),
		partials:  make(map[string]string, len(PartialNames)),
	}

	for _, name := range TemplateNames {
		text, err := readNamed(fsys, templatesDir, name)
		if err != nil {
			return nil, err
		}
		s.templates[name] = text
	}

	for _, name := range PartialNames {
		text, err := readNamed(fsys, partialsDir, name)
		if err != nil {
			return nil, err
		}
		s.partials[name] = text
	}

	return s, nil
}

func readNamed(fsys fs.FS, dir, name string) (string, error) {
	p := path.Join(dir, name+extension)
	data, err := fs.ReadFile(fsys, p)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s: %w", ErrTemplateNotFound, p, err)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", p, err)
	}
	return string(data), nil
}

// Template returns the raw text of a page template.
func (s *Store) Template(name string) (string, error) {
	text, ok := s.templates[name]
	if !ok {
		return "", fmt.Errorf("%w: template %q", ErrTemplateNotFound, name)
	}
	return text, nil
}

// Partial returns the raw text of a partial.
func (s *Store) Partial(name string) (string, error) {
	text, ok := s.partials[name]
	if !ok {
		return "", fmt.Errorf("%w: partial %q", ErrTemplateNotFound, name)
	}
	return text, nil
}
