package audio

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestEmitter_Unsubscribe(t *testing.T) {
	var e emitter
	var calls int
	sub := e.on(TimeUpdate, func(Event) { calls++ })
	e.on(Ended, func(Event) { t.Error("wrong event type delivered") })

	e.emit(Event{Type: TimeUpdate})
	sub.Unsubscribe()
	sub.Unsubscribe()
	e.emit(Event{Type: TimeUpdate})

	if calls != 1 {
		t.Errorf("handler called %d times, want 1", calls)
	}
	if e.count() != 1 {
		t.Errorf("count = %d, want 1", e.count())
	}
}

func TestEventType_String(t *testing.T) {
	tests := map[EventType]string{
		LoadedMetadata: "loadedmetadata",
		TimeUpdate:     "timeupdate",
		Ended:          "ended",
		Error:          "error",
		EventType(99):  "unknown",
	}
	for typ, want := range tests {
		if got := typ.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", typ, got, want)
		}
	}
}

func TestFFmpeg_Args(t *testing.T) {
	tests := []struct {
		name string
		f    FFmpeg
		rate float64
		want []string
	}{
		{
			name: "normal speed",
			f:    FFmpeg{},
			rate: 1,
			want: []string{"-hide_banner", "-loglevel", "error", "-i", "pipe:0", "-f", "s16le", "-ar", "44100", "-ac", "1", "pipe:1"},
		},
		{
			name: "faster",
			f:    FFmpeg{SampleRate: 48000},
			rate: 1.5,
			want: []string{"-hide_banner", "-loglevel", "error", "-i", "pipe:0", "-f", "s16le", "-ar", "48000", "-ac", "1", "-filter:a", "atempo=1.50", "pipe:1"},
		},
		{
			name: "clamped",
			f:    FFmpeg{},
			rate: 4,
			want: []string{"-hide_banner", "-loglevel", "error", "-i", "pipe:0", "-f", "s16le", "-ar", "44100", "-ac", "1", "-filter:a", "atempo=2.00", "pipe:1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.f.args(tt.rate); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("args = %v\nwant   %v", got, tt.want)
			}
		})
	}
}

func TestFFmpeg_DecodeEmptyInput(t *testing.T) {
	if _, err := (FFmpeg{}).Decode(context.Background(), nil, 1); err == nil {
		t.Error("empty input should fail")
	}
}

func TestFFmpeg_MissingBinary(t *testing.T) {
	f := FFmpeg{Path: filepath.Join(t.TempDir(), "no-ffmpeg")}
	if err := f.Check(); err == nil {
		t.Error("Check should fail for a missing binary")
	}
	if _, err := f.Decode(context.Background(), []byte("ID3"), 1); err == nil {
		t.Error("Decode should fail for a missing binary")
	}
}

func TestIsRemote(t *testing.T) {
	tests := map[string]bool{
		"https://cdn.example.com/a.mp3": true,
		"http://localhost:8000/a.mp3":   true,
		"/tmp/a.mp3":                    false,
		"file:///tmp/a.mp3":             false,
		"":                              false,
	}
	for src, want := range tests {
		if got := IsRemote(src); got != want {
			t.Errorf("IsRemote(%q) = %v, want %v", src, got, want)
		}
	}
}

func TestSourceLoader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.mp3" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("remote-bytes"))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "local.mp3")
	if err := os.WriteFile(path, []byte("local-bytes"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		src     string
		want    string
		wantErr bool
	}{
		{"remote", srv.URL + "/a.mp3", "remote-bytes", false},
		{"remote not found", srv.URL + "/missing.mp3", "", true},
		{"local path", path, "local-bytes", false},
		{"file url", "file://" + path, "local-bytes", false},
		{"missing file", path + ".nope", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SourceLoader{}.Load(context.Background(), tt.src)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMockMedia(t *testing.T) {
	m := NewMockMedia()

	if err := m.Play(context.Background()); !errors.Is(err, ErrNoSource) {
		t.Errorf("Play without source: %v", err)
	}

	var ended bool
	m.On(Ended, func(Event) { ended = true })

	m.Load("https://cdn/a.mp3")
	m.CompleteLoad(30)
	if err := m.Play(context.Background()); err != nil {
		t.Fatal(err)
	}
	m.SetCurrentTime(45)
	if m.CurrentTime() != 30 {
		t.Errorf("SetCurrentTime should clamp, got %f", m.CurrentTime())
	}
	m.End()
	if !ended || m.Playing() {
		t.Error("End should stop playback and emit Ended")
	}

	m.SetPlayError(ErrDeviceUnavailable)
	if err := m.Play(context.Background()); !errors.Is(err, ErrDeviceUnavailable) {
		t.Errorf("want ErrDeviceUnavailable, got %v", err)
	}

	_ = m.Close()
	if m.Handlers() != 0 || !m.Closed() {
		t.Error("Close should drop handlers")
	}
}
