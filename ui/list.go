package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/articlereader/articlereader/internal/api"
	"github.com/muesli/reflow/truncate"
	"github.com/sahilm/fuzzy"
)

// cardHeight is the number of lines a card takes, including its margin.
const cardHeight = 3

// visible returns the articles shown in the list, filtered by title when a
// filter is set.
func (m model) visible() []api.Article {
	articles := m.svc.Articles.Snapshot().Data
	term := strings.TrimSpace(m.filter.Value())
	if term == "" {
		return articles
	}

	titles := make([]string, len(articles))
	for i, a := range articles {
		titles[i] = a.Title
	}
	matches := fuzzy.Find(term, titles)
	out := make([]api.Article, 0, len(matches))
	for _, match := range matches {
		out = append(out, articles[match.Index])
	}
	return out
}

// current returns the article under the cursor.
func (m model) current() (api.Article, bool) {
	visible := m.visible()
	if m.cursor < 0 || m.cursor >= len(visible) {
		return api.Article{}, false
	}
	return visible[m.cursor], true
}

func (m model) articleByID(id string) (api.Article, bool) {
	if id == "" {
		return api.Article{}, false
	}
	return api.Find(m.svc.Articles.Snapshot().Data, id)
}

func (m *model) clampCursor() {
	n := len(m.visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if n == 0 && m.mode == modeMenu {
		m.mode = modeBrowse
	}
}

func (m model) listWidth() int {
	return max(0, m.width-sidebarWidth-1-listStyle.GetHorizontalFrameSize())
}

func (m model) listView(height int) string {
	var b strings.Builder
	snap := m.svc.Articles.Snapshot()
	width := m.listWidth()

	header := titleStyle.Render("Articles")
	if snap.HasData && snap.IsLoading {
		header += " " + m.spinner.View()
	}
	b.WriteString(header + "\n")
	height--

	if m.mode == modeFilter || m.filter.Value() != "" {
		b.WriteString(m.filter.View() + "\n")
		height--
	}
	b.WriteString("\n")
	height--

	if !snap.HasData {
		if snap.Err != nil {
			b.WriteString(errorView(errors.New(api.Message(snap.Err))))
			return b.String()
		}
		b.WriteString(subtleStyle.Render("Loading articles..."))
		return b.String()
	}

	visible := m.visible()
	if len(visible) == 0 {
		if m.filter.Value() != "" {
			b.WriteString(subtleStyle.Render("Nothing matches."))
		} else {
			b.WriteString(subtleStyle.Render("No articles yet. Add a URL to get started."))
		}
		return b.String()
	}

	perPage := max(1, height/cardHeight)
	if m.mode == modeMenu {
		perPage = max(1, perPage-1)
	}
	start := (m.cursor / perPage) * perPage
	end := min(start+perPage, len(visible))

	playing := m.svc.Player.Session().ArticleID
	for i := start; i < end; i++ {
		a := visible[i]
		b.WriteString(m.cardView(a, width, i == m.cursor, a.ID == playing))
		b.WriteString("\n")
		if i == m.cursor && m.mode == modeMenu {
			b.WriteString(m.menuView() + "\n")
		}
	}

	if pages := (len(visible) + perPage - 1) / perPage; pages > 1 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("%d/%d", start/perPage+1, pages)))
	}
	return b.String()
}

func (m model) cardView(a api.Article, width int, selected, playing bool) string {
	w := uint(max(0, width-2)) //nolint:gosec

	title := a.Title
	if title == "" {
		title = a.ContentURL
	}
	if playing {
		title = "♪ " + title
	}
	title = truncate.StringWithTail(title, w, ellipsis)
	subtitle := truncate.StringWithTail(a.ContentURL, w, ellipsis)
	if !a.HasAudio() {
		subtitle = truncate.StringWithTail(a.ContentURL+" · no audio yet", w, ellipsis)
	}

	body := cardTitleStyle.Render(title) + "\n" + cardSubtitleStyle.Render(subtitle)
	if selected && m.focus == focusList {
		return selectedCardStyle.Render(body)
	}
	return cardStyle.Render(body)
}

func (m model) menuView() string {
	items := make([]string, len(menuItems))
	for i, it := range menuItems {
		hint := m.keys.MenuDelete.Help().Key
		if it.item == menuCopyURL {
			hint = m.keys.MenuCopy.Help().Key
		}
		s := fmt.Sprintf("%s  %s", hint, it.label)
		if i == m.menuIndex {
			items[i] = selectedMenuItemStyle.Render("› " + s)
		} else {
			items[i] = menuItemStyle.Render("  " + s)
		}
	}
	return menuStyle.Render(strings.Join(items, "\n"))
}
