// Package prompt renders the system instructions sent ahead of every turn
package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/Ocada-ai-biz/agentx/internal/domain"
)

const dateLayout = "Monday, January 2, 2006"

type Template struct {
	Name     string
	Template string

	parsed *template.Template
}

// Variables are what a system template can reference
type Variables struct {
	Date  string
	Tools []domain.Tool
}

type Manager struct {
	templates map[string]*Template
	now       func() time.Time
}

func NewManager() *Manager {
	return &Manager{
		templates: make(map[string]*Template),
		now:       time.Now,
	}
}

// AddTemplate parses and stores a template under name
func (m *Manager) AddTemplate(name, text string) error {
	parsed, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return fmt.Errorf("failed to parse prompt %s: %w", name, err)
	}
	m.templates[name] = &Template{Name: name, Template: text, parsed: parsed}
	return nil
}

func (m *Manager) LoadTemplate(name string) (*Template, error) {
	if t, ok := m.templates[name]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("prompt %s not found", name)
}

func (m *Manager) RenderTemplate(t *Template, vars Variables) (string, error) {
	if vars.Date == "" {
		vars.Date = m.now().Format(dateLayout)
	}
	var buf bytes.Buffer
	if err := t.parsed.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("failed to render prompt %s: %w", t.Name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// System renders the named template followed by any extra parts, separated
// by blank lines. Empty parts are skipped.
func (m *Manager) System(name string, tools []domain.Tool, extra ...string) (string, error) {
	t, err := m.LoadTemplate(name)
	if err != nil {
		return "", err
	}
	base, err := m.RenderTemplate(t, Variables{Tools: tools})
	if err != nil {
		return "", err
	}

	parts := []string{base}
	for _, p := range extra {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}
