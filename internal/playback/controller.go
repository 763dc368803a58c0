// Package playback controls the audio of the selected article: binding it to
// the media element, the transport controls and the play state the player
// bar renders.
package playback

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/articlereader/articlereader/internal/api"
	"github.com/articlereader/articlereader/internal/audio"
	"github.com/charmbracelet/log"
)

// SkipSeconds is how far SkipForward jumps.
const SkipSeconds = 15

// Controller owns one media element and the session bound to it. Every
// handler it registers belongs to a binding generation; events and play
// results from an older binding are ignored.
type Controller struct {
	media  audio.Media
	notify chan struct{}

	mu      sync.Mutex
	gen     uint64
	subs    []audio.Subscription
	session Session
	speed   float64
	closed  bool

	// cancelStart cancels the Play call in flight. startSeq identifies it.
	cancelStart context.CancelFunc
	startSeq    uint64
}

// New creates a controller over media. The controller closes media on
// Close.
func New(media audio.Media) *Controller {
	return &Controller{
		media:   media,
		notify:  make(chan struct{}, 1),
		speed:   DefaultSpeed,
		session: Session{State: StateIdle, PlaybackSpeed: DefaultSpeed},
	}
}

// Session returns a snapshot of the current session.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Notify signals session changes. Signals are coalesced.
func (c *Controller) Notify() <-chan struct{} {
	return c.notify
}

// Select binds article to the media element and resets the session. The
// previous binding's handlers are removed first.
func (c *Controller) Select(article api.Article) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.gen++
	gen := c.gen
	c.unbindLocked()
	c.cancelStartLocked()

	c.session = Session{
		ArticleID:     article.ID,
		Source:        article.AudioURL,
		State:         StateReady,
		PlaybackSpeed: c.speed,
	}
	c.subs = []audio.Subscription{
		c.media.On(audio.LoadedMetadata, c.handler(gen, c.onLoadedMetadata)),
		c.media.On(audio.TimeUpdate, c.handler(gen, c.onTimeUpdate)),
		c.media.On(audio.Ended, c.handler(gen, c.onEnded)),
		c.media.On(audio.Error, c.handler(gen, c.onError)),
	}
	c.media.SetPlaybackRate(c.speed)
	c.media.Load(article.AudioURL)
	c.mu.Unlock()

	log.Debug("article selected", "id", article.ID, "has_audio", article.HasAudio())
	c.signal()
}

// TogglePlay pauses when playing and otherwise tries to play. Toggling
// while a previous play is still waiting for its source cancels that play.
// Without a selection it does nothing.
func (c *Controller) TogglePlay(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.closed || c.session.State == StateIdle:
		c.mu.Unlock()
		return nil

	case c.session.State == StatePlaying:
		c.media.Pause()
		c.session.State = StateReady
		c.session.CurrentTime = c.media.CurrentTime()
		c.mu.Unlock()
		c.signal()
		return nil

	case c.cancelStart != nil:
		c.cancelStartLocked()
		id := c.session.ArticleID
		c.mu.Unlock()
		log.Debug("pending play cancelled", "id", id)
		c.signal()
		return nil

	case c.session.Source == "":
		c.session.State = StateErrored
		c.session.LastError = MsgNoAudio
		c.mu.Unlock()
		c.signal()
		return &PlaybackError{Reason: ReasonMissingSource, Message: MsgNoAudio}
	}
	gen := c.gen
	ctx, seq := c.startLocked(ctx)
	c.mu.Unlock()

	return c.play(ctx, gen, seq)
}

// startLocked registers a new pending play and returns its context.
func (c *Controller) startLocked(ctx context.Context) (context.Context, uint64) {
	c.cancelStartLocked()
	ctx, cancel := context.WithCancel(ctx)
	c.startSeq++
	c.cancelStart = cancel
	return ctx, c.startSeq
}

func (c *Controller) cancelStartLocked() {
	if c.cancelStart != nil {
		c.cancelStart()
		c.cancelStart = nil
	}
}

// play starts the media outside the lock, since it may wait for a load.
func (c *Controller) play(ctx context.Context, gen, seq uint64) error {
	err := c.media.Play(ctx)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		log.Debug("discarding play result of a previous selection", "error", err)
		return nil
	}
	if seq != c.startSeq || c.cancelStart == nil {
		// cancelled by another toggle; a start that won the race is undone
		if err == nil {
			c.media.Pause()
		}
		c.mu.Unlock()
		return nil
	}
	c.cancelStartLocked()
	if err != nil {
		c.session.State = StateErrored
		c.session.LastError = MsgPlayFailed
		c.mu.Unlock()
		c.signal()
		log.Warn("playback failed", "error", err)
		return &PlaybackError{Reason: reasonOf(err), Message: MsgPlayFailed, Cause: err}
	}
	c.session.State = StatePlaying
	c.session.LastError = ""
	c.mu.Unlock()
	c.signal()
	return nil
}

// Seek jumps to percent of the duration, clamped to [0, 100]. It reports
// false when the duration is not known yet.
func (c *Controller) Seek(percent float64) bool {
	c.mu.Lock()
	gen, d := c.gen, c.session.Duration
	c.mu.Unlock()

	if d <= 0 || math.IsNaN(percent) {
		return false
	}
	percent = math.Max(0, math.Min(100, percent))
	return c.setTime(gen, percent/100*d)
}

// SkipForward jumps SkipSeconds ahead, stopping at the end. It reports
// false when the duration is not known yet.
func (c *Controller) SkipForward() bool {
	c.mu.Lock()
	gen, d := c.gen, c.session.Duration
	c.mu.Unlock()

	if d <= 0 {
		return false
	}
	return c.setTime(gen, math.Min(c.media.CurrentTime()+SkipSeconds, d))
}

// Restart rewinds to the start. Playing sessions keep playing; paused ones
// stay paused.
func (c *Controller) Restart(ctx context.Context) error {
	c.mu.Lock()
	if c.closed || c.session.State == StateIdle {
		c.mu.Unlock()
		return nil
	}
	gen, wasPlaying := c.gen, c.session.State == StatePlaying
	c.mu.Unlock()

	if !c.setTime(gen, 0) || !wasPlaying {
		return nil
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return nil
	}
	ctx, seq := c.startLocked(ctx)
	c.mu.Unlock()
	return c.play(ctx, gen, seq)
}

// SetSpeed changes the playback rate without changing the play state. Only
// the rates in Speeds are accepted. The rate carries over to later
// selections.
func (c *Controller) SetSpeed(rate float64) error {
	if speedIndex(rate) < 0 {
		return ErrInvalidSpeed
	}

	c.mu.Lock()
	c.speed = rate
	c.session.PlaybackSpeed = rate
	if c.session.State != StateIdle && !c.closed {
		c.media.SetPlaybackRate(rate)
	}
	c.mu.Unlock()

	c.signal()
	return nil
}

// StepSpeed moves delta steps along Speeds and returns the new rate.
func (c *Controller) StepSpeed(delta int) float64 {
	c.mu.Lock()
	rate := stepSpeed(c.speed, delta)
	c.mu.Unlock()

	_ = c.SetSpeed(rate)
	return rate
}

// Close unbinds all handlers and closes the media element.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.gen++
	c.unbindLocked()
	c.cancelStartLocked()
	c.session = Session{State: StateIdle, PlaybackSpeed: c.speed}
	c.mu.Unlock()

	return c.media.Close()
}

// setTime seeks the media. SetCurrentTime emits synchronously, so it runs
// without the lock.
func (c *Controller) setTime(gen uint64, seconds float64) bool {
	c.media.SetCurrentTime(seconds)

	c.mu.Lock()
	ok := gen == c.gen
	if ok {
		c.session.CurrentTime = seconds
	}
	c.mu.Unlock()

	if ok {
		c.signal()
	}
	return ok
}

func (c *Controller) unbindLocked() {
	for _, s := range c.subs {
		s.Unsubscribe()
	}
	c.subs = nil
}

// handler wraps f so that it only runs for the binding it was created for.
func (c *Controller) handler(gen uint64, f func(audio.Event)) audio.Handler {
	return func(ev audio.Event) {
		c.mu.Lock()
		if gen != c.gen {
			c.mu.Unlock()
			return
		}
		f(ev)
		c.mu.Unlock()
		c.signal()
	}
}

// Event handlers run with c.mu held.

func (c *Controller) onLoadedMetadata(audio.Event) {
	c.session.Duration = c.media.Duration()
	c.session.CurrentTime = 0
}

func (c *Controller) onTimeUpdate(audio.Event) {
	c.session.CurrentTime = c.media.CurrentTime()
}

func (c *Controller) onEnded(audio.Event) {
	c.session.CurrentTime = c.media.CurrentTime()
	if c.session.State == StatePlaying {
		c.session.State = StateReady
	}
}

func (c *Controller) onError(ev audio.Event) {
	log.Warn("audio source failed to load", "src", c.session.Source, "error", ev.Err)
	c.session.State = StateErrored
	c.session.LastError = MsgLoadFailed
}

func (c *Controller) signal() {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

func reasonOf(err error) Reason {
	switch {
	case errors.Is(err, audio.ErrNoSource):
		return ReasonMissingSource
	case errors.Is(err, audio.ErrDecode):
		return ReasonDecode
	default:
		return ReasonBlocked
	}
}
