package audio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// tickInterval is how often TimeUpdate fires while playing.
const tickInterval = 250 * time.Millisecond

// errSuperseded is returned by Play when the source changed while waiting
// for it to load.
var errSuperseded = errors.New("source replaced while loading")

// positionReader tracks how many bytes the player has consumed.
type positionReader struct {
	mu       sync.Mutex
	r        *bytes.Reader
	position atomic.Int64
}

func newPositionReader(data []byte) *positionReader {
	return &positionReader{r: bytes.NewReader(data)}
}

func (p *positionReader) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, err := p.r.Read(b)
	p.position.Add(int64(n))
	return n, err
}

func (p *positionReader) Seek(offset int64, whence int) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, err := p.r.Seek(offset, whence)
	if err == nil {
		p.position.Store(n)
	}
	return n, err
}

// Element is the oto-backed Media. The zero value is not usable; create
// elements with Device.NewElement.
type Element struct {
	d      *Device
	events emitter

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	closed     bool
	gen        uint64 // bumped by Load and Close
	src        string
	cancelLoad context.CancelFunc
	loading    chan struct{} // closed when the current load resolves
	loadErr    error

	encoded  []byte
	pcm      []byte
	pcmRate  float64 // rate pcm was decoded at
	rate     float64 // requested rate
	duration float64

	out      Output
	reader   *positionReader
	player   Player
	position float64 // used while there is no player
	playing  bool
	stopTick chan struct{}
}

var _ Media = (*Element)(nil)

func newElement(d *Device) *Element {
	ctx, cancel := context.WithCancel(context.Background())
	return &Element{d: d, ctx: ctx, cancel: cancel, rate: 1, pcmRate: 1}
}

// Load replaces the source and starts fetching it in the background.
func (e *Element) Load(src string) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.gen++
	gen := e.gen
	e.resetLocked()
	e.src = src

	done := make(chan struct{})
	e.loading = done
	if src == "" {
		e.loadErr = ErrNoSource
		close(done)
		e.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(e.ctx)
	e.cancelLoad = cancel
	rate := e.rate
	e.mu.Unlock()

	go e.load(ctx, gen, src, rate, done)
}

func (e *Element) load(ctx context.Context, gen uint64, src string, rate float64, done chan struct{}) {
	defer close(done)

	pcm, encoded, err := e.d.decode(ctx, src, rate, nil)

	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		return
	}
	if err != nil {
		e.loadErr = err
		e.mu.Unlock()
		log.Debug("audio load failed", "src", src, "error", err)
		e.events.emit(Event{Type: Error, Err: err})
		return
	}
	e.encoded = encoded
	e.pcm = pcm
	e.pcmRate = rate
	e.duration = e.d.seconds(int64(len(pcm))) * rate
	if e.rate != rate {
		e.redecodeLocked()
	}
	e.mu.Unlock()

	e.events.emit(Event{Type: LoadedMetadata})
}

// Play waits for the source to load and starts playback. Playing an ended
// element starts over.
func (e *Element) Play(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	done, gen := e.loading, e.gen
	e.mu.Unlock()

	if done == nil {
		return ErrNoSource
	}
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	e.mu.Lock()
	failed := e.loadErr
	e.mu.Unlock()
	if failed != nil {
		return failed
	}

	out, err := e.d.open()
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case e.closed:
		return ErrClosed
	case gen != e.gen:
		return errSuperseded
	}

	at := e.currentTimeLocked()
	if at >= e.duration {
		at = 0
	}
	if e.player == nil {
		e.out = out
		e.newPlayerLocked(at)
	} else if at == 0 {
		e.seekLocked(0)
	}
	e.player.Play()
	e.playing = true
	e.startTickerLocked()
	return nil
}

// Pause stops playback and keeps the position.
func (e *Element) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.player == nil || !e.playing {
		return
	}
	e.position = e.currentTimeLocked()
	e.player.Pause()
	e.playing = false
	e.stopTickerLocked()
}

// CurrentTime returns the playback position in seconds.
func (e *Element) CurrentTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentTimeLocked()
}

// SetCurrentTime seeks to seconds, clamped to the source duration.
func (e *Element) SetCurrentTime(seconds float64) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	if seconds < 0 {
		seconds = 0
	}
	if e.duration > 0 && seconds > e.duration {
		seconds = e.duration
	}
	e.seekLocked(seconds)
	e.mu.Unlock()

	e.events.emit(Event{Type: TimeUpdate})
}

// Duration returns the source duration in seconds, zero until loaded.
func (e *Element) Duration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration
}

// SetPlaybackRate changes the speed. The source is re-decoded in the
// background and swapped in at the current position; until then playback
// continues at the previous rate.
func (e *Element) SetPlaybackRate(rate float64) {
	if rate <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || rate == e.rate {
		return
	}
	e.rate = rate
	if e.pcm != nil {
		e.redecodeLocked()
	}
}

// On registers h for events of type t.
func (e *Element) On(t EventType, h Handler) Subscription {
	return e.events.on(t, h)
}

// Close stops playback, cancels pending loads and drops all handlers.
func (e *Element) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.gen++
	e.resetLocked()
	e.mu.Unlock()

	e.cancel()
	e.events.reset()
	return nil
}

// resetLocked drops the current source and player.
func (e *Element) resetLocked() {
	if e.cancelLoad != nil {
		e.cancelLoad()
		e.cancelLoad = nil
	}
	e.closePlayerLocked()
	e.stopTickerLocked()
	e.playing = false
	e.loadErr = nil
	e.encoded = nil
	e.pcm = nil
	e.pcmRate = e.rate
	e.duration = 0
	e.position = 0
}

func (e *Element) closePlayerLocked() {
	if e.player == nil {
		return
	}
	e.player.Pause()
	if err := e.player.Close(); err != nil {
		log.Debug("failed to close audio player", "error", err)
	}
	e.player = nil
	e.reader = nil
}

// newPlayerLocked creates a paused player positioned at seconds.
func (e *Element) newPlayerLocked(seconds float64) {
	e.reader = newPositionReader(e.pcm)
	if _, err := e.reader.Seek(e.d.offset(seconds/e.pcmRate), io.SeekStart); err != nil {
		log.Debug("failed to position audio reader", "error", err)
	}
	e.player = e.out.NewPlayer(e.reader)
	e.position = seconds
}

func (e *Element) seekLocked(seconds float64) {
	e.position = seconds
	if e.player == nil {
		return
	}
	if _, err := e.player.Seek(e.d.offset(seconds/e.pcmRate), io.SeekStart); err != nil {
		log.Debug("audio seek failed", "error", err)
	}
}

func (e *Element) currentTimeLocked() float64 {
	if e.player == nil || e.reader == nil {
		return e.position
	}
	n := e.reader.position.Load() - int64(e.player.BufferedSize())
	if n < 0 {
		n = 0
	}
	t := e.d.seconds(n) * e.pcmRate
	if e.duration > 0 && t > e.duration {
		t = e.duration
	}
	return t
}

// redecodeLocked decodes the current source at the requested rate and swaps
// it in when done.
func (e *Element) redecodeLocked() {
	gen, src, rate, encoded := e.gen, e.src, e.rate, e.encoded
	go func() {
		pcm, _, err := e.d.decode(e.ctx, src, rate, encoded)

		e.mu.Lock()
		defer e.mu.Unlock()
		if gen != e.gen || rate != e.rate {
			return
		}
		if err != nil {
			log.Warn("failed to change playback rate", "rate", rate, "error", err)
			return
		}

		at := e.currentTimeLocked()
		hadPlayer := e.player != nil
		e.closePlayerLocked()
		e.pcm = pcm
		e.pcmRate = rate
		if hadPlayer {
			e.newPlayerLocked(at)
			if e.playing {
				e.player.Play()
			}
		} else {
			e.position = at
		}
		log.Debug("playback rate applied", "rate", rate, "at", at)
	}()
}

func (e *Element) startTickerLocked() {
	if e.stopTick != nil {
		return
	}
	stop := make(chan struct{})
	e.stopTick = stop
	go e.tick(stop)
}

func (e *Element) stopTickerLocked() {
	if e.stopTick != nil {
		close(e.stopTick)
		e.stopTick = nil
	}
}

// tick emits TimeUpdate while playing and Ended once the stream drains.
func (e *Element) tick(stop chan struct{}) {
	t := time.NewTicker(tickInterval)
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case <-t.C:
		}

		e.mu.Lock()
		if e.stopTick != stop {
			e.mu.Unlock()
			return
		}
		ended := e.playing && e.player != nil && !e.player.IsPlaying() &&
			e.reader.position.Load() >= int64(len(e.pcm))
		if ended {
			e.playing = false
			e.position = e.duration
			e.closePlayerLocked()
			e.stopTickerLocked()
		}
		e.mu.Unlock()

		if ended {
			e.events.emit(Event{Type: TimeUpdate})
			e.events.emit(Event{Type: Ended})
			return
		}
		e.events.emit(Event{Type: TimeUpdate})
	}
}
