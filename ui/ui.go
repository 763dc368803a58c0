// Package ui provides the article dashboard.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/articlereader/articlereader/internal/api"
	"github.com/articlereader/articlereader/internal/voice"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	te "github.com/muesli/termenv"
)

const statusMessageTimeout = time.Second * 3 // how long to show status messages like "copied!"

// NewProgram returns a new Tea program. Commands started by the program
// stop delivering results once ctx is done.
func NewProgram(ctx context.Context, cfg Config, svc *Services) *tea.Program {
	log.Debug(
		"Starting articlereader",
		"glamour", cfg.GlamourEnabled,
		"alt_screen", !cfg.NoAltScreen,
		"mouse", cfg.EnableMouse,
	)

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if !cfg.NoAltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	return tea.NewProgram(newModel(ctx, cfg, svc), opts...)
}

type (
	queryUpdateMsg    string
	playbackUpdateMsg struct{}
	previewUpdateMsg  struct{}

	submitDoneMsg struct {
		url string
		err error
	}
	deleteDoneMsg struct {
		id  string
		err error
	}
	previewDoneMsg struct {
		voice string
		err   error
	}
	playDoneMsg struct{ err error }
	pasteMsg    struct {
		text string
		err  error
	}
	copiedMsg         struct{ err error }
	readerRenderedMsg struct {
		id      string
		content string
		err     error
	}
	statusMessageTimeoutMsg int
)

// focus is the part of the dashboard receiving keys.
type focus int

const (
	focusInput focus = iota
	focusVoices
	focusList
)

// mode is the top-level interaction state.
type mode int

const (
	modeBrowse mode = iota
	modeMenu
	modeFilter
	modeReader
)

func (m mode) String() string {
	return map[mode]string{
		modeBrowse: "browsing articles",
		modeMenu:   "showing card menu",
		modeFilter: "filtering",
		modeReader: "reading article",
	}[m]
}

type menuItem int

const (
	menuDelete menuItem = iota
	menuCopyURL
)

var menuItems = []struct {
	item  menuItem
	label string
}{
	{menuDelete, "Delete"},
	{menuCopyURL, "Copy URL"},
}

type model struct {
	ctx  context.Context
	cfg  Config
	svc  *Services
	keys keyMap

	width  int
	height int
	focus  focus
	mode   mode

	help     help.Model
	spinner  spinner.Model
	progress progress.Model

	// Sidebar
	input      textinput.Model
	voices     []voice.Voice
	voiceIndex int

	// Article list
	cursor    int
	filter    textinput.Model
	menuIndex int

	// Reader pane
	reader   viewport.Model
	readerID string

	statusMessage string
	statusIsError bool
	statusSeq     int
}

func newModel(ctx context.Context, cfg Config, svc *Services) model {
	if cfg.GlamourStyle == "" || cfg.GlamourStyle == styles.AutoStyle {
		if te.HasDarkBackground() {
			cfg.GlamourStyle = styles.DarkStyle
		} else {
			cfg.GlamourStyle = styles.LightStyle
		}
	}

	in := textinput.New()
	in.Placeholder = "https://example.com/article"
	in.Prompt = "> "
	in.CharLimit = 2048
	in.Width = sidebarWidth - 8
	in.Focus()

	filter := textinput.New()
	filter.Prompt = "Find: "
	filter.CharLimit = 128

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = subtleStyle

	voices := voice.All()
	voiceIndex := voice.Index(cfg.DefaultVoice)
	if voiceIndex < 0 {
		voiceIndex = voice.Index(voice.DefaultVoice)
	}

	return model{
		ctx:        ctx,
		cfg:        cfg,
		svc:        svc,
		keys:       newKeyMap(),
		focus:      focusInput,
		mode:       modeBrowse,
		help:       help.New(),
		spinner:    sp,
		progress:   progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		input:      in,
		voices:     voices,
		voiceIndex: voiceIndex,
		filter:     filter,
		reader:     viewport.New(0, 0),
	}
}

func (m model) Init() tea.Cmd {
	log.Debug("Init() called", "mode", m.mode)
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		fetchArticles(m.svc.Articles),
		waitForQueryUpdate(m.ctx, m.svc.Queries.Updates()),
		waitForSignal(m.ctx, m.svc.Player.Notify(), playbackUpdateMsg{}),
		waitForSignal(m.ctx, m.svc.Preview.Notify(), previewUpdateMsg{}),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Ctrl+C always quits no matter where in the application you are.
		if key.Matches(msg, m.keys.ForceQuit) {
			return m, tea.Quit
		}
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	// Window size is received when starting up and on every resize
	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)
		if m.mode == modeReader {
			if a, ok := m.articleByID(m.readerID); ok {
				cmds = append(cmds, renderArticle(m.cfg, m.reader.Width, a))
			}
		}

	case spinner.TickMsg:
		if m.spinning() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case queryUpdateMsg:
		m.svc.Queries.Ack(string(msg))
		m.clampCursor()
		cmds = append(cmds, waitForQueryUpdate(m.ctx, m.svc.Queries.Updates()))
		if m.spinning() {
			cmds = append(cmds, m.spinner.Tick)
		}

	case playbackUpdateMsg:
		cmds = append(cmds, waitForSignal(m.ctx, m.svc.Player.Notify(), playbackUpdateMsg{}))

	case previewUpdateMsg:
		cmds = append(cmds, waitForSignal(m.ctx, m.svc.Preview.Notify(), previewUpdateMsg{}))

	case submitDoneMsg:
		if msg.err == nil && strings.TrimSpace(m.input.Value()) == msg.url {
			m.input.Reset()
		}

	case deleteDoneMsg:
		if msg.err != nil {
			cmds = append(cmds, m.showStatusMessage(api.Message(msg.err), true))
		} else {
			cmds = append(cmds, m.showStatusMessage("Article deleted", false))
		}

	case previewDoneMsg:
		if msg.err != nil {
			log.Debug("voice preview did not play", "voice", msg.voice, "error", msg.err)
		}

	case playDoneMsg:
		// Failures are shown from the session.

	case pasteMsg:
		if msg.err != nil {
			cmds = append(cmds, m.showStatusMessage("Unable to read clipboard", true))
			break
		}
		m.insert(msg.text)

	case copiedMsg:
		if msg.err != nil {
			cmds = append(cmds, m.showStatusMessage("Unable to copy URL", true))
		} else {
			cmds = append(cmds, m.showStatusMessage("Copied URL", false))
		}

	case readerRenderedMsg:
		if msg.id != m.readerID {
			break
		}
		if msg.err != nil {
			m.reader.SetContent(errorStyle.Render(msg.err.Error()))
			break
		}
		m.reader.SetContent(msg.content)

	case statusMessageTimeoutMsg:
		if int(msg) == m.statusSeq {
			m.statusMessage = ""
			m.statusIsError = false
		}

	default:
		var cmd tea.Cmd
		if m.focus == focusInput {
			m.input, cmd = m.input.Update(msg)
		}
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeReader:
		return m.handleReaderKey(msg)
	case modeMenu:
		return m.handleMenuKey(msg)
	case modeFilter:
		return m.handleFilterKey(msg)
	}

	if key.Matches(msg, m.keys.Focus) {
		m.cycleFocus(msg.String() == "shift+tab")
		return m, nil
	}

	switch m.focus {
	case focusInput:
		return m.handleInputKey(msg)
	case focusVoices:
		switch {
		case key.Matches(msg, m.keys.PrevVoice):
			m.voiceIndex = (m.voiceIndex + len(m.voices) - 1) % len(m.voices)
			return m, nil
		case key.Matches(msg, m.keys.NextVoice):
			m.voiceIndex = (m.voiceIndex + 1) % len(m.voices)
			return m, nil
		case key.Matches(msg, m.keys.PlayVoice):
			return m, m.playVoice()
		}
	case focusList:
		if mm, cmd, ok := m.handleListKey(msg); ok {
			return mm, cmd
		}
	}
	return m.handleTransportKey(msg)
}

func (m model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		return m, m.submit()
	case key.Matches(msg, m.keys.Paste):
		return m, pasteClipboard
	case key.Matches(msg, m.keys.Back):
		m.setFocus(focusList)
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) handleListKey(msg tea.KeyMsg) (model, tea.Cmd, bool) {
	visible := m.visible()
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(visible)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Select):
		if a, ok := m.current(); ok {
			m.svc.Player.Select(a)
		}
	case key.Matches(msg, m.keys.Menu):
		if _, ok := m.current(); ok {
			m.mode = modeMenu
			m.menuIndex = 0
		}
	case key.Matches(msg, m.keys.Read):
		a, ok := m.current()
		if !ok {
			return m, nil, true
		}
		m.mode = modeReader
		m.readerID = a.ID
		m.reader.GotoTop()
		m.reader.SetContent(subtleStyle.Render("Rendering..."))
		return m, renderArticle(m.cfg, m.reader.Width, a), true
	case key.Matches(msg, m.keys.Filter):
		m.mode = modeFilter
		return m, m.filter.Focus(), true
	case key.Matches(msg, m.keys.Refresh):
		m.svc.Queries.Invalidate(articlesKey)
		return m, m.spinner.Tick, true
	case key.Matches(msg, m.keys.Back):
		if m.filter.Value() != "" {
			m.filter.Reset()
			m.cursor = 0
		}
	default:
		return m, nil, false
	}
	return m, nil, true
}

// handleTransportKey handles the player keys shared by the voice selector
// and the list.
func (m model) handleTransportKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	player := m.svc.Player
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Play):
		return m, togglePlay(m.ctx, player)
	case key.Matches(msg, m.keys.Skip):
		player.SkipForward()
	case key.Matches(msg, m.keys.Restart):
		return m, restart(m.ctx, player)
	case key.Matches(msg, m.keys.Faster):
		player.StepSpeed(1)
	case key.Matches(msg, m.keys.Slower):
		player.StepSpeed(-1)
	case key.Matches(msg, m.keys.Seek):
		player.Seek(seekPercent(msg.String()))
	}
	return m, nil
}

// seekPercent maps 1-9 to 10-90% and 0 to the end.
func seekPercent(digit string) float64 {
	d := float64(digit[0] - '0')
	if d == 0 {
		return 100
	}
	return d * 10
}

func (m model) handleMenuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Menu):
		m.mode = modeBrowse
	case key.Matches(msg, m.keys.Up):
		if m.menuIndex > 0 {
			m.menuIndex--
		}
	case key.Matches(msg, m.keys.Down):
		if m.menuIndex < len(menuItems)-1 {
			m.menuIndex++
		}
	case key.Matches(msg, m.keys.MenuDelete):
		return m.menuAction(menuDelete)
	case key.Matches(msg, m.keys.MenuCopy):
		return m.menuAction(menuCopyURL)
	case key.Matches(msg, m.keys.Select):
		return m.menuAction(menuItems[m.menuIndex].item)
	}
	return m, nil
}

// menuAction runs a card menu item. Menu items never select the card.
func (m model) menuAction(item menuItem) (tea.Model, tea.Cmd) {
	m.mode = modeBrowse
	a, ok := m.current()
	if !ok {
		return m, nil
	}
	switch item {
	case menuDelete:
		log.Info("deleting article", "id", a.ID)
		return m, deleteArticle(m.ctx, m.svc.Delete, a.ID)
	case menuCopyURL:
		return m, copyToClipboard(a.ContentURL)
	}
	return m, nil
}

func (m model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.filter.Reset()
		m.filter.Blur()
		m.cursor = 0
		m.mode = modeBrowse
		return m, nil
	case key.Matches(msg, m.keys.Select):
		m.filter.Blur()
		m.mode = modeBrowse
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.cursor = 0
	return m, cmd
}

func (m model) handleReaderKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.Read):
		m.mode = modeBrowse
		m.readerID = ""
		return m, nil
	case key.Matches(msg, m.keys.Play):
		return m, togglePlay(m.ctx, m.svc.Player)
	}
	var cmd tea.Cmd
	m.reader, cmd = m.reader.Update(msg)
	return m, cmd
}

func (m model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.mode == modeReader {
		var cmd tea.Cmd
		m.reader, cmd = m.reader.Update(msg)
		return m, cmd
	}
	switch msg.Button { //nolint:exhaustive
	case tea.MouseButtonWheelUp:
		if m.cursor > 0 {
			m.cursor--
		}
	case tea.MouseButtonWheelDown:
		if m.cursor < len(m.visible())-1 {
			m.cursor++
		}
	}
	return m, nil
}

// submit sends the URL in the input. Blank input submits nothing.
func (m model) submit() tea.Cmd {
	url := strings.TrimSpace(m.input.Value())
	if url == "" {
		return nil
	}
	call, ok := m.svc.Submit.Begin()
	if !ok {
		return nil
	}
	req := SubmitRequest{URL: url, Voice: m.selectedVoice().ID}
	log.Info("submitting article", "url", url, "voice", req.Voice)
	return tea.Batch(submitArticle(m.ctx, call, req), m.spinner.Tick)
}

// playVoice previews the selected voice unless a submission or another
// preview is in progress.
func (m model) playVoice() tea.Cmd {
	if !m.canPlayVoice() {
		return nil
	}
	return testVoice(m.ctx, m.svc.Preview, m.selectedVoice().ID)
}

func (m model) canPlayVoice() bool {
	return !m.submitting() && m.svc.Preview.Testing() == ""
}

func (m model) submitting() bool {
	return m.svc.Submit.State().IsPending
}

func (m model) spinning() bool {
	s := m.svc.Articles.Snapshot()
	return s.IsLoading || m.submitting()
}

func (m model) selectedVoice() voice.Voice {
	return m.voices[m.voiceIndex]
}

func (m *model) setSize(w, h int) {
	m.width = w
	m.height = h

	listWidth := max(0, w-sidebarWidth-1)
	m.progress.Width = max(10, listWidth/2)
	m.help.Width = w
	m.filter.Width = max(10, listWidth-12)

	m.reader.Width = w
	m.reader.Height = max(0, h-playerHeight-2)
}

func (m *model) cycleFocus(reverse bool) {
	next := (m.focus + 1) % 3
	if reverse {
		next = (m.focus + 2) % 3
	}
	m.setFocus(next)
}

func (m *model) setFocus(f focus) {
	m.focus = f
	if f == focusInput {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

// insert pastes text at the input cursor. Line breaks are dropped.
func (m *model) insert(text string) {
	text = strings.Join(strings.Fields(text), "")
	if text == "" {
		return
	}
	value := []rune(m.input.Value())
	pos := min(m.input.Position(), len(value))
	m.input.SetValue(string(value[:pos]) + text + string(value[pos:]))
	m.input.SetCursor(pos + len([]rune(text)))
}

// showStatusMessage shows msg in the footer until it times out.
func (m *model) showStatusMessage(msg string, isError bool) tea.Cmd {
	m.statusSeq++
	m.statusMessage = msg
	m.statusIsError = isError
	seq := m.statusSeq
	return tea.Tick(statusMessageTimeout, func(time.Time) tea.Msg {
		return statusMessageTimeoutMsg(seq)
	})
}

func (m model) View() string {
	if m.width == 0 {
		return ""
	}
	footer := m.statusBarView()
	if m.mode == modeReader {
		return m.reader.View() + "\n" + m.playerView() + "\n" + footer
	}

	bodyHeight := max(0, m.height-playerHeight-lipgloss.Height(footer)-1)
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		sidebarStyle.Height(bodyHeight).Render(m.sidebarView()),
		listStyle.Render(m.listView(bodyHeight-listStyle.GetVerticalFrameSize())),
	)
	return body + "\n" + m.playerView() + "\n" + footer
}

func errorView(err error) string {
	return fmt.Sprintf("%s %v", errorTitleStyle.Render("ERROR"), err)
}
