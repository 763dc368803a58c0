// Package apitest provides an in-memory article backend for tests.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/articlereader/articlereader/internal/api"
	"github.com/google/uuid"
)

// SampleAudio is the body returned by the test-voice endpoint.
var SampleAudio = []byte("ID3-fake-voice-sample")

// Endpoint names one route of the backend.
type Endpoint int

const (
	List Endpoint = iota
	Submit
	Delete
	TestVoice
)

// Backend is a fake article backend.
type Backend struct {
	Server *httptest.Server

	mu         sync.Mutex
	articles   []api.Article
	requests   []string
	failures   map[Endpoint]int
	voiceBody  map[string]string
	submitBody map[string]string
}

// NewBackend starts a fake backend seeded with articles. The server is
// closed when the test ends.
func NewBackend(t interface{ Cleanup(func()) }, articles ...api.Article) *Backend {
	b := &Backend{
		articles: append([]api.Article(nil), articles...),
		failures: make(map[Endpoint]int),
	}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.Server.Close)
	return b
}

// URL returns the base URL of the backend.
func (b *Backend) URL() string {
	return b.Server.URL
}

// Articles returns a copy of the stored articles.
func (b *Backend) Articles() []api.Article {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]api.Article(nil), b.articles...)
}

// Requests returns "METHOD /path" for every request received.
func (b *Backend) Requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requests...)
}

// Fail makes the endpoint answer with status instead of succeeding. A zero
// status restores normal behaviour.
func (b *Backend) Fail(ep Endpoint, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[ep] = status
}

// SubmitBody returns the JSON body of the last submit request.
func (b *Backend) SubmitBody() map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.submitBody
}

// VoiceBody returns the JSON body of the last test-voice request.
func (b *Backend) VoiceBody() map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.voiceBody
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.requests = append(b.requests, r.Method+" "+r.URL.Path)

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/articles":
		if status := b.failures[List]; status != 0 {
			http.Error(w, "list failed", status)
			return
		}
		writeJSON(w, b.articles)

	case r.Method == http.MethodPost && r.URL.Path == "/articles/test-voice":
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.voiceBody = body
		if status := b.failures[TestVoice]; status != 0 {
			http.Error(w, "synthesis failed", status)
			return
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write(SampleAudio)

	case r.Method == http.MethodPost && r.URL.Path == "/articles":
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.submitBody = body
		if status := b.failures[Submit]; status != 0 {
			http.Error(w, "submit failed", status)
			return
		}
		id := uuid.NewString()
		a := api.Article{
			ID:          id,
			Title:       "Article " + id[:8],
			Content:     "Body of " + body["url"],
			ContentURL:  body["url"],
			AudioURL:    b.Server.URL + "/audio/" + id + ".mp3",
			SpeechModel: body["textToSpeechModel"],
		}
		b.articles = append(b.articles, a)
		writeJSON(w, a)

	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/articles/"):
		if status := b.failures[Delete]; status != 0 {
			http.Error(w, "delete failed", status)
			return
		}
		id := strings.TrimPrefix(r.URL.Path, "/articles/")
		for i, a := range b.articles {
			if a.ID == id {
				b.articles = append(b.articles[:i], b.articles[i+1:]...)
				writeJSON(w, map[string]any{"message": "Article deleted", "id": id})
				return
			}
		}
		http.Error(w, "not found", http.StatusNotFound)

	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
