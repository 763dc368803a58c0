package ui

import (
	"fmt"
	"strings"

	"github.com/articlereader/articlereader/internal/playback"
	"github.com/articlereader/articlereader/internal/voice"
	"github.com/articlereader/articlereader/utils"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
)

// playerHeight is the height of the player bar including its border.
const playerHeight = 4

func (m model) playerView() string {
	s := m.svc.Player.Session()
	style := playerStyle.Width(m.width)
	inner := uint(max(0, m.width-style.GetHorizontalFrameSize())) //nolint:gosec

	if s.State == playback.StateIdle {
		return style.Render(subtleStyle.Render("No article selected") + "\n\n")
	}

	title := "Article no longer available"
	var voiceName string
	if a, ok := m.articleByID(s.ArticleID); ok {
		title = a.Title
		if a.SpeechModel != "" {
			voiceName = voice.ReadableName(a.SpeechModel)
		}
	}
	line := stateIcon(s.State) + " " + cardTitleStyle.Render(title)
	if voiceName != "" {
		line += subtleStyle.Render(" · " + voiceName)
	}
	line = truncate.StringWithTail(line, inner, ellipsis)

	times := fmt.Sprintf("  %s / %s  %sx",
		utils.FormatTime(s.CurrentTime),
		utils.FormatTime(s.Duration),
		formatSpeed(s.PlaybackSpeed),
	)
	bar := m.progress.ViewAs(s.Progress() / 100)
	transport := lipgloss.JoinHorizontal(lipgloss.Top, bar, subtleStyle.Render(times))

	status := dimStyle.Render(m.transportHint(s))
	if s.LastError != "" {
		status = errorStyle.Render(s.LastError)
	}

	return style.Render(strings.Join([]string{line, transport, status}, "\n"))
}

func (m model) transportHint(s playback.Session) string {
	switch {
	case s.IsPlaying():
		return "space pause · → +15s · r restart · +/- speed"
	case !s.CanPlay():
		return "audio is not ready yet · +/- speed"
	}
	return "space play · 0-9 seek · r restart · +/- speed"
}

func stateIcon(s playback.State) string {
	switch s {
	case playback.StatePlaying:
		return "▶"
	case playback.StateErrored:
		return errorStyle.Render("✗")
	default:
		return "⏸"
	}
}

func formatSpeed(rate float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", rate), "0"), ".")
}

func (m model) statusBarView() string {
	if m.statusMessage != "" {
		style := statusBarMessageStyle
		if m.statusIsError {
			style = statusBarErrorStyle
		}
		return style.Width(m.width).Render(" " + m.statusMessage)
	}
	if m.mode == modeReader {
		return statusBarStyle.Width(m.width).Render(" esc back · space play/pause · ↑/↓ scroll")
	}
	return m.help.View(m.keys)
}
