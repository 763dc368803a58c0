package ui

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/articlereader/articlereader/internal/api"
	"github.com/articlereader/articlereader/internal/api/apitest"
	"github.com/articlereader/articlereader/internal/audio"
	"github.com/articlereader/articlereader/internal/playback"
	"github.com/articlereader/articlereader/internal/preview"
	"github.com/articlereader/articlereader/internal/query"
	tea "github.com/charmbracelet/bubbletea"
)

var seed = []api.Article{
	{
		ID:          "a1",
		Title:       "Go Concurrency Patterns",
		Content:     "Goroutines and channels.",
		ContentURL:  "https://example.com/go",
		AudioURL:    "https://example.com/go.mp3",
		SpeechModel: "en-US-Standard-C",
	},
	{
		ID:         "a2",
		Title:      "Rust Ownership",
		Content:    "Borrowing.",
		ContentURL: "https://example.com/rust",
	},
}

type harness struct {
	backend *apitest.Backend
	svc     *Services
	media   *audio.MockMedia
	model   model
}

func newHarness(t *testing.T, articles ...api.Article) *harness {
	t.Helper()
	backend := apitest.NewBackend(t, articles...)
	gw, err := api.NewClient(api.Config{BaseURL: backend.URL()})
	if err != nil {
		t.Fatal(err)
	}

	media := audio.NewMockMedia()
	player := playback.New(media)
	previewer := preview.New(gw, func() audio.Media { return audio.NewMockMedia() },
		preview.Config{TempDir: t.TempDir()})
	svc := NewServices(gw, player, previewer)
	t.Cleanup(svc.Close)

	m := newModel(context.Background(), Config{GlamourStyle: "dark"}, svc)
	h := &harness{backend: backend, svc: svc, media: media, model: m}
	h.send(tea.WindowSizeMsg{Width: 140, Height: 40})
	return h
}

// loaded fetches the article list before returning.
func loaded(t *testing.T) *harness {
	t.Helper()
	h := newHarness(t, seed...)
	if s := h.svc.Articles.Refetch(context.Background()); s.Err != nil {
		t.Fatalf("fetch failed: %v", s.Err)
	}
	return h
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	m, cmd := h.model.Update(msg)
	h.model = m.(model)
	return cmd
}

func (h *harness) press(keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		cmd = h.send(keyPress(k))
	}
	return cmd
}

// run executes cmd, expanding batches, and feeds the results back into the
// model. Only use it with commands that return promptly.
func (h *harness) run(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case nil:
	case tea.BatchMsg:
		for _, c := range msg {
			h.run(c)
		}
	default:
		h.send(msg)
	}
}

func (h *harness) focusList() {
	h.model.setFocus(focusList)
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// newBlockingSubmit returns a submit mutation that resolves once block is
// closed.
func newBlockingSubmit(svc *Services, block <-chan struct{}) *query.Mutation[SubmitRequest, api.Article] {
	return query.NewMutation(svc.Queries, submitKey, func(context.Context, SubmitRequest) (api.Article, error) {
		<-block
		return api.Article{}, nil
	})
}

func assertContains(t *testing.T, view, want string) {
	t.Helper()
	if !strings.Contains(view, want) {
		t.Errorf("view does not contain %q:\n%s", want, view)
	}
}

func assertNotContains(t *testing.T, view, unwanted string) {
	t.Helper()
	if strings.Contains(view, unwanted) {
		t.Errorf("view unexpectedly contains %q:\n%s", unwanted, view)
	}
}

func TestView_InitialState(t *testing.T) {
	h := newHarness(t, seed...)

	view := h.model.View()
	assertContains(t, view, "Loading articles...")
	assertContains(t, view, "No article selected")
	assertContains(t, view, "English US - Female (A)")
	assertContains(t, view, "Play Voice")
	assertContains(t, view, "Add Article")
}

func TestView_ListsArticles(t *testing.T) {
	h := loaded(t)

	view := h.model.View()
	assertNotContains(t, view, "Loading articles...")
	assertContains(t, view, "Go Concurrency Patterns")
	assertContains(t, view, "https://example.com/rust")
}

func TestView_LoadFailure(t *testing.T) {
	h := newHarness(t)
	h.backend.Fail(apitest.List, http.StatusInternalServerError)
	h.svc.Articles.Refetch(context.Background())

	assertContains(t, h.model.View(), "Network response was not ok")
}

func TestSubmit(t *testing.T) {
	h := loaded(t)
	h.model.input.SetValue("  https://example.com/new  ")

	h.run(h.model.submit())

	body := h.backend.SubmitBody()
	if body["url"] != "https://example.com/new" {
		t.Errorf("submitted url %q", body["url"])
	}
	if body["textToSpeechModel"] != "en-US-Standard-A" {
		t.Errorf("submitted voice %q", body["textToSpeechModel"])
	}
	if v := h.model.input.Value(); v != "" {
		t.Errorf("input not cleared: %q", v)
	}
	if s := h.svc.Articles.Refetch(context.Background()); len(s.Data) != 3 {
		t.Errorf("expected the new article in the list, got %d articles", len(s.Data))
	}
}

func TestSubmit_DoubleEnterSubmitsOnce(t *testing.T) {
	h := loaded(t)
	h.model.input.SetValue("https://example.com/twice")

	first := h.press("enter")
	second := h.press("enter")
	if second != nil {
		t.Error("second enter returned a command while the first submit is pending")
	}
	if !h.model.submitting() {
		t.Error("submit should be pending before its command runs")
	}

	h.run(first)
	h.run(second)

	var posts int
	for _, r := range h.backend.Requests() {
		if r == "POST /articles" {
			posts++
		}
	}
	if posts != 1 {
		t.Errorf("URL submitted %d times, want 1", posts)
	}
	if h.model.submitting() {
		t.Error("submit still pending after it resolved")
	}
}

func TestSubmit_Blank(t *testing.T) {
	h := loaded(t)

	for _, v := range []string{"", "   ", "\t"} {
		h.model.input.SetValue(v)
		if cmd := h.model.submit(); cmd != nil {
			t.Errorf("blank input %q submitted", v)
		}
	}
	if body := h.backend.SubmitBody(); body != nil {
		t.Errorf("backend received %v", body)
	}
}

func TestSubmit_FailureKeepsURL(t *testing.T) {
	h := loaded(t)
	h.backend.Fail(apitest.Submit, http.StatusBadGateway)
	h.model.input.SetValue("https://example.com/new")

	h.run(h.model.submit())

	if v := h.model.input.Value(); v != "https://example.com/new" {
		t.Errorf("input changed to %q", v)
	}
	assertContains(t, h.model.View(), "HTTP error! status: 502")
}

func TestSubmit_EnterInInput(t *testing.T) {
	h := loaded(t)
	h.model.input.SetValue("https://example.com/enter")

	h.run(h.press("enter"))

	if got := h.backend.SubmitBody()["url"]; got != "https://example.com/enter" {
		t.Errorf("submitted %q", got)
	}
}

func TestVoiceSelector(t *testing.T) {
	h := loaded(t)
	h.press("tab")
	if h.model.focus != focusVoices {
		t.Fatalf("focus = %v", h.model.focus)
	}

	h.press("right", "right")
	if got := h.model.selectedVoice().ID; got != "en-US-Standard-C" {
		t.Errorf("selected %s", got)
	}
	h.press("left", "left", "left")
	if got := h.model.selectedVoice().ID; got != "en-US-Standard-J" {
		t.Errorf("selection should wrap around, got %s", got)
	}
}

func TestPlayVoice(t *testing.T) {
	h := loaded(t)
	h.press("tab", "right")

	h.run(h.press("enter"))

	if got := h.backend.VoiceBody()["voice"]; got != "en-US-Standard-B" {
		t.Errorf("previewed %q", got)
	}
	if h.svc.Preview.Testing() != "en-US-Standard-B" {
		t.Error("preview not active")
	}
	assertContains(t, h.model.View(), "Playing...")
	if cmd := h.model.playVoice(); cmd != nil {
		t.Error("Play Voice should be disabled while a preview is active")
	}
}

func TestPlayVoice_DisabledWhileSubmitting(t *testing.T) {
	h := loaded(t)

	block := make(chan struct{})
	h.svc.Submit = newBlockingSubmit(h.svc, block)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = h.svc.Submit.Mutate(context.Background(), SubmitRequest{URL: "https://example.com/slow"})
	}()
	waitUntil(t, func() bool { return h.svc.Submit.State().IsPending })

	if cmd := h.model.playVoice(); cmd != nil {
		t.Error("Play Voice should be disabled while submitting")
	}
	assertContains(t, h.model.View(), "Adding...")

	close(block)
	<-done
	if cmd := h.model.playVoice(); cmd == nil {
		t.Error("Play Voice should be enabled again")
	}
}

func TestPlayVoice_FailureIsSilent(t *testing.T) {
	h := loaded(t)
	h.backend.Fail(apitest.TestVoice, http.StatusInternalServerError)
	h.press("tab")

	h.run(h.press("enter"))

	if h.model.statusMessage != "" {
		t.Errorf("unexpected status message %q", h.model.statusMessage)
	}
	assertNotContains(t, h.model.View(), "Failed to generate test audio")
	if h.svc.Preview.Testing() != "" {
		t.Error("preview flag not cleared")
	}
}

func TestSelectArticle(t *testing.T) {
	h := loaded(t)
	h.focusList()

	h.press("enter")

	s := h.svc.Player.Session()
	if s.ArticleID != "a1" || s.State != playback.StateReady {
		t.Fatalf("session = %+v", s)
	}
	if loads := h.media.Loads(); len(loads) != 1 || loads[0] != "https://example.com/go.mp3" {
		t.Errorf("media loaded %v", loads)
	}

	h.media.CompleteLoad(200)
	h.media.Advance(65)
	view := h.model.View()
	assertContains(t, view, "English US - Female (C)")
	assertContains(t, view, "1:05 / 3:20")
	assertNotContains(t, view, "No article selected")
}

func TestTransportKeys(t *testing.T) {
	h := loaded(t)
	h.focusList()
	h.press("enter")
	h.media.CompleteLoad(100)

	h.run(h.press(" "))
	if !h.svc.Player.Session().IsPlaying() {
		t.Fatal("space did not start playback")
	}

	h.press("5")
	if got := h.media.CurrentTime(); got != 50 {
		t.Errorf("seek to 50%% moved to %v", got)
	}
	h.press("l")
	if got := h.media.CurrentTime(); got != 65 {
		t.Errorf("skip moved to %v", got)
	}
	h.press("+")
	if got := h.svc.Player.Session().PlaybackSpeed; got != 1.25 {
		t.Errorf("speed = %v", got)
	}
	assertContains(t, h.model.View(), "1.25x")

	h.run(h.press("r"))
	if got := h.media.CurrentTime(); got != 0 {
		t.Errorf("restart moved to %v", got)
	}
	if !h.svc.Player.Session().IsPlaying() {
		t.Error("restart stopped playback")
	}

	h.run(h.press(" "))
	if h.svc.Player.Session().IsPlaying() {
		t.Error("space did not pause")
	}
}

func TestSeekDigits(t *testing.T) {
	h := loaded(t)
	h.focusList()
	h.press("enter")
	h.media.CompleteLoad(200)

	tests := []struct {
		key  string
		want float64
	}{
		{"1", 20},
		{"9", 180},
		{"0", 200},
	}
	for _, tc := range tests {
		h.press(tc.key)
		if got := h.media.CurrentTime(); got != tc.want {
			t.Errorf("key %q moved to %v, want %v", tc.key, got, tc.want)
		}
	}
}

func TestPlayError(t *testing.T) {
	h := loaded(t)
	h.focusList()
	h.press("down", "enter")

	h.run(h.press(" "))

	assertContains(t, h.model.View(), playback.MsgNoAudio)
}

func TestCardMenu_NeverSelects(t *testing.T) {
	h := loaded(t)
	h.focusList()

	h.press("m")
	if h.model.mode != modeMenu {
		t.Fatalf("mode = %v", h.model.mode)
	}
	assertContains(t, h.model.View(), "Copy URL")

	h.run(h.press("enter")) // first item: Delete

	if h.svc.Player.Session().State != playback.StateIdle {
		t.Error("menu action selected the card")
	}
	if h.model.mode != modeBrowse {
		t.Errorf("mode = %v after action", h.model.mode)
	}
	if got := len(h.backend.Articles()); got != 1 {
		t.Errorf("expected one article left, got %d", got)
	}
	if h.model.statusMessage != "Article deleted" {
		t.Errorf("status = %q", h.model.statusMessage)
	}
}

func TestCardMenu_Escape(t *testing.T) {
	h := loaded(t)
	h.focusList()

	h.press("m", "esc")

	if h.model.mode != modeBrowse {
		t.Errorf("mode = %v", h.model.mode)
	}
	if len(h.backend.Articles()) != 2 {
		t.Error("escape deleted an article")
	}
}

func TestDelete_ErrorShownInFooter(t *testing.T) {
	h := loaded(t)
	h.backend.Fail(apitest.Delete, http.StatusInternalServerError)
	h.focusList()

	h.run(h.press("m", "d"))

	if !h.model.statusIsError || h.model.statusMessage != "Failed to delete article" {
		t.Errorf("status = %q (error %v)", h.model.statusMessage, h.model.statusIsError)
	}
	assertContains(t, h.model.View(), "Failed to delete article")

	h.send(statusMessageTimeoutMsg(h.model.statusSeq))
	if h.model.statusMessage != "" {
		t.Error("status message did not time out")
	}
}

func TestDeletePlayingArticle(t *testing.T) {
	h := loaded(t)
	h.focusList()
	h.press("enter")
	h.media.CompleteLoad(100)
	h.run(h.press(" "))

	h.run(h.press("m", "d"))
	h.svc.Articles.Refetch(context.Background())

	s := h.svc.Player.Session()
	if s.ArticleID != "a1" || !s.IsPlaying() {
		t.Errorf("playback interrupted: %+v", s)
	}
	assertContains(t, h.model.View(), "Article no longer available")
}

func TestFilter(t *testing.T) {
	h := loaded(t)
	h.focusList()

	h.press("/", "r", "s", "t")
	if h.model.mode != modeFilter {
		t.Fatalf("mode = %v", h.model.mode)
	}
	visible := h.model.visible()
	if len(visible) != 1 || visible[0].ID != "a2" {
		t.Errorf("visible = %+v", visible)
	}

	h.press("enter")
	if h.model.mode != modeBrowse || len(h.model.visible()) != 1 {
		t.Error("enter should keep the filter")
	}
	h.press("esc")
	if len(h.model.visible()) != 2 {
		t.Error("esc should clear the filter")
	}
}

func TestReader(t *testing.T) {
	h := loaded(t)
	h.focusList()

	h.run(h.press("c"))

	if h.model.mode != modeReader || h.model.readerID != "a1" {
		t.Fatalf("mode = %v, reader = %q", h.model.mode, h.model.readerID)
	}
	assertContains(t, h.model.View(), "Goroutines and channels.")

	h.press("esc")
	if h.model.mode != modeBrowse {
		t.Errorf("mode = %v", h.model.mode)
	}
}

func TestPaste(t *testing.T) {
	h := loaded(t)
	h.model.input.SetValue("https://")

	h.send(pasteMsg{text: "example.com/pasted\n"})

	if got := h.model.input.Value(); got != "https://example.com/pasted" {
		t.Errorf("input = %q", got)
	}
}

func TestQuit(t *testing.T) {
	h := loaded(t)

	// q is typed into the focused input
	h.press("q")
	if h.model.input.Value() != "q" {
		t.Errorf("input = %q", h.model.input.Value())
	}

	h.focusList()
	if cmd := h.press("q"); cmd == nil {
		t.Fatal("q did not quit")
	} else if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestFormatSpeed(t *testing.T) {
	tests := map[float64]string{0.5: "0.5", 1: "1", 1.25: "1.25", 1.5: "1.5", 2: "2"}
	for in, want := range tests {
		if got := formatSpeed(in); got != want {
			t.Errorf("formatSpeed(%v) = %q, want %q", in, got, want)
		}
	}
}
