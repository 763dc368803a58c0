// Package preview plays short voice samples so a voice can be auditioned
// before an article is submitted with it.
package preview

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/articlereader/articlereader/internal/audio"
	"github.com/charmbracelet/log"
)

// DefaultSampleText is spoken when no sample text is configured.
const DefaultSampleText = "This is a sample of how this voice sounds."

var (
	// ErrPreviewInFlight is returned by TestVoice while another preview is
	// active.
	ErrPreviewInFlight = errors.New("a voice preview is already playing")

	// ErrClosed is returned by TestVoice after Close.
	ErrClosed = errors.New("previewer closed")
)

// Synthesizer produces the audio of a voice sample.
type Synthesizer interface {
	SynthesizeVoiceSample(ctx context.Context, voiceID, sampleText string) ([]byte, error)
}

// Config configures a Previewer.
type Config struct {
	SampleText string
	TempDir    string // directory for sample files, os.TempDir() if empty
}

// Previewer plays at most one voice sample at a time, each on a media
// element of its own.
type Previewer struct {
	synth    Synthesizer
	newMedia func() audio.Media
	text     string
	dir      string
	notify   chan struct{}

	mu     sync.Mutex
	active *session
	closed bool
}

type session struct {
	voice string
	media audio.Media
	subs  []audio.Subscription
	file  string
	done  chan struct{}
}

// New creates a previewer. newMedia is called once per preview.
func New(synth Synthesizer, newMedia func() audio.Media, cfg Config) *Previewer {
	if cfg.SampleText == "" {
		cfg.SampleText = DefaultSampleText
	}
	return &Previewer{
		synth:    synth,
		newMedia: newMedia,
		text:     cfg.SampleText,
		dir:      cfg.TempDir,
		notify:   make(chan struct{}, 1),
	}
}

// Testing returns the voice being previewed, or "" when idle.
func (p *Previewer) Testing() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active == nil {
		return ""
	}
	return p.active.voice
}

// Notify signals when a preview starts or finishes.
func (p *Previewer) Notify() <-chan struct{} {
	return p.notify
}

// TestVoice fetches a sample of voiceID and starts playing it. It returns
// once playback has started; the sample file is removed when it ends or
// fails.
func (p *Previewer) TestVoice(ctx context.Context, voiceID string) error {
	s := &session{voice: voiceID, done: make(chan struct{})}

	p.mu.Lock()
	switch {
	case p.closed:
		p.mu.Unlock()
		return ErrClosed
	case p.active != nil:
		p.mu.Unlock()
		return ErrPreviewInFlight
	}
	p.active = s
	p.mu.Unlock()
	p.signal()

	data, err := p.synth.SynthesizeVoiceSample(ctx, voiceID, p.text)
	if err != nil {
		log.Error("voice preview failed", "voice", voiceID, "error", err)
		p.finish(s)
		return err
	}

	file, err := writeSample(p.dir, data)
	if err != nil {
		log.Error("voice preview failed", "voice", voiceID, "error", err)
		p.finish(s)
		return err
	}

	m := p.newMedia()
	p.mu.Lock()
	if p.active != s {
		p.mu.Unlock()
		_ = m.Close()
		_ = os.Remove(file)
		return ErrClosed
	}
	s.file = file
	s.media = m
	end := func(audio.Event) { p.finish(s) }
	s.subs = []audio.Subscription{
		m.On(audio.Ended, end),
		m.On(audio.Error, end),
	}
	m.Load(file)
	p.mu.Unlock()

	if err := m.Play(ctx); err != nil {
		log.Error("voice preview playback failed", "voice", voiceID, "error", err)
		p.finish(s)
		return err
	}
	log.Debug("voice preview playing", "voice", voiceID)
	return nil
}

// Wait blocks until the active preview, if any, has finished.
func (p *Previewer) Wait(ctx context.Context) error {
	p.mu.Lock()
	s := p.active
	p.mu.Unlock()
	if s == nil {
		return nil
	}
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the active preview and rejects new ones.
func (p *Previewer) Close() error {
	p.mu.Lock()
	p.closed = true
	s := p.active
	p.mu.Unlock()

	if s != nil {
		p.finish(s)
	}
	return nil
}

// finish releases everything s holds. Only the first call per session has
// an effect.
func (p *Previewer) finish(s *session) {
	p.mu.Lock()
	if p.active != s {
		p.mu.Unlock()
		return
	}
	p.active = nil
	p.mu.Unlock()

	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	if s.media != nil {
		_ = s.media.Close()
	}
	if s.file != "" {
		if err := os.Remove(s.file); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn("failed to remove voice sample", "file", s.file, "error", err)
		}
	}
	close(s.done)
	p.signal()
}

func (p *Previewer) signal() {
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

func writeSample(dir string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, "voice-sample-*.mp3")
	if err != nil {
		return "", fmt.Errorf("failed to create sample file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to write sample file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to write sample file: %w", err)
	}
	return f.Name(), nil
}
