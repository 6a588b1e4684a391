package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

const defaultWordWrap = 100

// markdown renders markdown for the terminal. A nil *markdown renders
// plain text.
type markdown struct {
	tr *glamour.TermRenderer
}

func newMarkdown(width int) *markdown {
	if width <= 0 {
		width = defaultWordWrap
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
		glamour.WithEmoji(),
	)
	if err != nil {
		return nil
	}
	return &markdown{tr: tr}
}

func (m *markdown) render(content string) string {
	if m == nil {
		return content
	}
	rendered, err := m.tr.Render(content)
	if err != nil {
		return content
	}
	// glamour pads output with blank lines
	return strings.TrimSpace(rendered)
}
