package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/articlereader/articlereader/internal/api"
	"github.com/articlereader/articlereader/internal/playback"
	"github.com/articlereader/articlereader/internal/preview"
	"github.com/articlereader/articlereader/internal/query"
	"github.com/articlereader/articlereader/utils"
	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
)

// COMMANDS

// Every command that outlives a keypress takes the program context and
// returns nil once it is done, so results of a quit program are dropped.

func fetchArticles(q *query.Query[[]api.Article]) tea.Cmd {
	return func() tea.Msg {
		q.Fetch()
		return nil
	}
}

func waitForQueryUpdate(ctx context.Context, updates <-chan string) tea.Cmd {
	return func() tea.Msg {
		select {
		case key := <-updates:
			return queryUpdateMsg(key)
		case <-ctx.Done():
			return nil
		}
	}
}

func waitForSignal(ctx context.Context, ch <-chan struct{}, msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ch:
			return msg
		case <-ctx.Done():
			return nil
		}
	}
}

// submitArticle runs a submit already marked pending by Mutation.Begin.
func submitArticle(ctx context.Context, call query.Call[SubmitRequest, api.Article], req SubmitRequest) tea.Cmd {
	return func() tea.Msg {
		a, err := call(ctx, req)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			log.Error("failed to submit article", "url", req.URL, "error", err)
		} else {
			log.Info("article submitted", "id", a.ID)
		}
		return submitDoneMsg{url: req.URL, err: err}
	}
}

func deleteArticle(ctx context.Context, mut *query.Mutation[string, api.Ack], id string) tea.Cmd {
	return func() tea.Msg {
		_, err := mut.Mutate(ctx, id)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			log.Error("failed to delete article", "id", id, "error", err)
		}
		return deleteDoneMsg{id: id, err: err}
	}
}

func togglePlay(ctx context.Context, c *playback.Controller) tea.Cmd {
	return func() tea.Msg {
		err := c.TogglePlay(ctx)
		if ctx.Err() != nil {
			return nil
		}
		return playDoneMsg{err: err}
	}
}

func restart(ctx context.Context, c *playback.Controller) tea.Cmd {
	return func() tea.Msg {
		err := c.Restart(ctx)
		if ctx.Err() != nil {
			return nil
		}
		return playDoneMsg{err: err}
	}
}

func testVoice(ctx context.Context, p *preview.Previewer, voiceID string) tea.Cmd {
	return func() tea.Msg {
		err := p.TestVoice(ctx, voiceID)
		if ctx.Err() != nil {
			return nil
		}
		return previewDoneMsg{voice: voiceID, err: err}
	}
}

func pasteClipboard() tea.Msg {
	text, err := clipboard.ReadAll()
	return pasteMsg{text: text, err: err}
}

func copyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		// Copy using OSC 52
		termenv.Copy(text)
		// Copy using native system clipboard
		err := clipboard.WriteAll(text)
		return copiedMsg{err: err}
	}
}

func renderArticle(cfg Config, width int, a api.Article) tea.Cmd {
	return func() tea.Msg {
		s, err := glamourRender(cfg, width, articleMarkdown(a))
		if err != nil {
			log.Error("error rendering with Glamour", "error", err)
		}
		return readerRenderedMsg{id: a.ID, content: s, err: err}
	}
}

func articleMarkdown(a api.Article) string {
	var b strings.Builder
	if a.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", a.Title)
	}
	if a.ContentURL != "" {
		fmt.Fprintf(&b, "<%s>\n\n", a.ContentURL)
	}
	b.WriteString(a.Content)
	return b.String()
}

func glamourRender(cfg Config, width int, markdown string) (string, error) {
	if !cfg.GlamourEnabled {
		return markdown, nil
	}

	w := width
	if cfg.GlamourMaxWidth > 0 {
		w = min(int(cfg.GlamourMaxWidth), width) //nolint:gosec
	}
	r, err := glamour.NewTermRenderer(
		utils.GlamourStyle(cfg.GlamourStyle),
		glamour.WithWordWrap(max(0, w)),
	)
	if err != nil {
		return "", fmt.Errorf("error creating glamour renderer: %w", err)
	}

	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("error rendering markdown: %w", err)
	}
	return out, nil
}
