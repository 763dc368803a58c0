package ui

import (
	"strings"

	"github.com/articlereader/articlereader/internal/api"
	"github.com/charmbracelet/lipgloss"
)

func (m model) sidebarView() string {
	var b strings.Builder
	inner := sidebarWidth - 4

	b.WriteString(logoStyle.Render("ArticleReader") + "\n\n")

	// URL input
	b.WriteString(m.label("Article URL", m.focus == focusInput) + "\n")
	b.WriteString(m.input.View() + "\n")
	if err := m.svc.Submit.State().Err; err != nil {
		b.WriteString(errorStyle.Width(inner).Render(api.Message(err)) + "\n")
	}
	b.WriteString("\n")

	// Voice selector
	b.WriteString(m.label("Voice", m.focus == focusVoices) + "\n")
	name := m.selectedVoice().Name()
	if m.focus == focusVoices {
		name = "‹ " + name + " ›"
	} else {
		name = "  " + name
	}
	b.WriteString(name + "\n\n")

	// Buttons
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		m.playVoiceButton(), " ", m.addArticleButton(),
	))

	return b.String()
}

func (m model) label(s string, focused bool) string {
	if focused {
		return focusedLabelStyle.Render(s)
	}
	return labelStyle.Render(s)
}

func (m model) playVoiceButton() string {
	label := "Play Voice"
	if m.svc.Preview.Testing() != "" {
		label = "Playing..."
	}
	switch {
	case !m.canPlayVoice():
		return disabledButtonStyle.Render(label)
	case m.focus == focusVoices:
		return focusedButtonStyle.Render(label)
	default:
		return buttonStyle.Render(label)
	}
}

func (m model) addArticleButton() string {
	switch {
	case m.submitting():
		return disabledButtonStyle.Render(m.spinner.View() + "Adding...")
	case m.focus == focusInput:
		return focusedButtonStyle.Render("Add Article")
	default:
		return buttonStyle.Render("Add Article")
	}
}
