package audio

import (
	"context"
	"sync"
)

// MockMedia is a Media for tests. It never produces sound; tests drive it
// with CompleteLoad, FailLoad, Advance and End.
type MockMedia struct {
	events emitter

	mu       sync.Mutex
	src      string
	loads    []string
	duration float64
	current  float64
	rate     float64
	playing  bool
	closed   bool
	playErr  error
	plays    int
	pauses   int
}

var _ Media = (*MockMedia)(nil)

// NewMockMedia returns an empty mock.
func NewMockMedia() *MockMedia {
	return &MockMedia{rate: 1}
}

// Load records src and resets the element like a browser would.
func (m *MockMedia) Load(src string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.src = src
	m.loads = append(m.loads, src)
	m.duration = 0
	m.current = 0
	m.playing = false
}

// Play fails with the error set by SetPlayError, or ErrNoSource when
// nothing is loaded.
func (m *MockMedia) Play(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.plays++
	switch {
	case m.closed:
		return ErrClosed
	case m.playErr != nil:
		return m.playErr
	case m.src == "":
		return ErrNoSource
	}
	if m.duration > 0 && m.current >= m.duration {
		m.current = 0
	}
	m.playing = true
	return nil
}

func (m *MockMedia) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauses++
	m.playing = false
}

func (m *MockMedia) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// SetCurrentTime clamps like Element and emits TimeUpdate.
func (m *MockMedia) SetCurrentTime(seconds float64) {
	m.mu.Lock()
	if seconds < 0 {
		seconds = 0
	}
	if m.duration > 0 && seconds > m.duration {
		seconds = m.duration
	}
	m.current = seconds
	m.mu.Unlock()
	m.events.emit(Event{Type: TimeUpdate})
}

func (m *MockMedia) Duration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *MockMedia) SetPlaybackRate(rate float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rate = rate
}

func (m *MockMedia) On(t EventType, h Handler) Subscription {
	return m.events.on(t, h)
}

func (m *MockMedia) Close() error {
	m.mu.Lock()
	m.closed = true
	m.playing = false
	m.mu.Unlock()
	m.events.reset()
	return nil
}

// CompleteLoad sets the duration and emits LoadedMetadata.
func (m *MockMedia) CompleteLoad(duration float64) {
	m.mu.Lock()
	m.duration = duration
	m.current = 0
	m.mu.Unlock()
	m.events.emit(Event{Type: LoadedMetadata})
}

// FailLoad emits an Error event carrying err.
func (m *MockMedia) FailLoad(err error) {
	m.events.emit(Event{Type: Error, Err: err})
}

// Advance moves the position to seconds and emits TimeUpdate.
func (m *MockMedia) Advance(seconds float64) {
	m.mu.Lock()
	m.current = seconds
	m.mu.Unlock()
	m.events.emit(Event{Type: TimeUpdate})
}

// End moves to the end of the source and emits Ended.
func (m *MockMedia) End() {
	m.mu.Lock()
	m.current = m.duration
	m.playing = false
	m.mu.Unlock()
	m.events.emit(Event{Type: Ended})
}

// SetPlayError makes subsequent Play calls fail with err.
func (m *MockMedia) SetPlayError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playErr = err
}

// Handlers returns the number of registered handlers.
func (m *MockMedia) Handlers() int {
	return m.events.count()
}

// Playing reports whether Play succeeded more recently than Pause.
func (m *MockMedia) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

// Rate returns the last rate passed to SetPlaybackRate.
func (m *MockMedia) Rate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rate
}

// Loads returns every source passed to Load.
func (m *MockMedia) Loads() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.loads...)
}

// Closed reports whether Close was called.
func (m *MockMedia) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Calls returns how often Play and Pause were called.
func (m *MockMedia) Calls() (plays, pauses int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.plays, m.pauses
}
