package audio

import (
	"context"
	"sync"
)

// EventType identifies a media event.
type EventType int

const (
	// LoadedMetadata fires once the duration of a new source is known.
	LoadedMetadata EventType = iota
	// TimeUpdate fires periodically while playing and after seeks.
	TimeUpdate
	// Ended fires when playback reaches the end of the source.
	Ended
	// Error fires when a source cannot be fetched or decoded.
	Error
)

func (t EventType) String() string {
	switch t {
	case LoadedMetadata:
		return "loadedmetadata"
	case TimeUpdate:
		return "timeupdate"
	case Ended:
		return "ended"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Event is delivered to handlers registered with Media.On.
type Event struct {
	Type EventType
	Err  error // set for Error events
}

// Handler receives media events. Handlers run on the goroutine that
// produced the event and must not block.
type Handler func(Event)

// Subscription is returned by Media.On.
type Subscription interface {
	Unsubscribe()
}

// Media is a playable audio element. Times are in seconds of source
// content, independent of the playback rate.
type Media interface {
	// Load replaces the source and returns immediately. LoadedMetadata or
	// Error follows. An empty src unloads the element.
	Load(src string)

	// Play starts or resumes playback, waiting for a pending load to finish.
	Play(ctx context.Context) error
	Pause()

	CurrentTime() float64
	SetCurrentTime(seconds float64)
	// Duration is zero until LoadedMetadata.
	Duration() float64
	SetPlaybackRate(rate float64)

	On(t EventType, h Handler) Subscription
	Close() error
}

// emitter dispatches events to registered handlers.
type emitter struct {
	mu       sync.Mutex
	nextID   int
	handlers map[EventType]map[int]Handler
}

type subscription struct {
	e    *emitter
	t    EventType
	id   int
	once sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.e.mu.Lock()
		delete(s.e.handlers[s.t], s.id)
		s.e.mu.Unlock()
	})
}

func (e *emitter) on(t EventType, h Handler) Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.handlers == nil {
		e.handlers = make(map[EventType]map[int]Handler)
	}
	if e.handlers[t] == nil {
		e.handlers[t] = make(map[int]Handler)
	}
	e.nextID++
	e.handlers[t][e.nextID] = h
	return &subscription{e: e, t: t, id: e.nextID}
}

// emit calls the handlers for ev.Type. It must not be called with any lock
// held that a handler might take.
func (e *emitter) emit(ev Event) {
	e.mu.Lock()
	hs := make([]Handler, 0, len(e.handlers[ev.Type]))
	for _, h := range e.handlers[ev.Type] {
		hs = append(hs, h)
	}
	e.mu.Unlock()

	for _, h := range hs {
		h(ev)
	}
}

// count returns the number of registered handlers.
func (e *emitter) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, hs := range e.handlers {
		n += len(hs)
	}
	return n
}

func (e *emitter) reset() {
	e.mu.Lock()
	e.handlers = nil
	e.mu.Unlock()
}
