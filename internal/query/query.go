package query

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// FetchFunc loads the current value of a resource.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Snapshot is the state of a query at one point in time.
type Snapshot[T any] struct {
	Data      T
	HasData   bool      // Data holds the result of at least one successful fetch
	IsLoading bool      // a fetch is in flight
	IsStale   bool      // invalidated and not yet successfully refetched
	Err       error     // error of the last fetch, nil after a success
	UpdatedAt time.Time // time of the last successful fetch
}

// IsInitialLoading reports whether the first fetch is still in flight.
func (s Snapshot[T]) IsInitialLoading() bool {
	return s.IsLoading && !s.HasData
}

// Query caches one named resource. At most one fetch runs at a time.
type Query[T any] struct {
	key    string
	fetch  FetchFunc[T]
	client *Client

	mu       sync.Mutex
	snapshot Snapshot[T]
	version  uint64 // bumped on every invalidation
	running  bool
	idle     chan struct{} // closed when the running fetch loop ends
}

// NewQuery registers a query under key. Nothing is fetched until Fetch or
// Invalidate is called.
func NewQuery[T any](client *Client, key string, fetch FetchFunc[T]) *Query[T] {
	q := &Query[T]{
		key:    key,
		fetch:  fetch,
		client: client,
	}
	client.register(key, q)
	return q
}

// Key returns the name of the query.
func (q *Query[T]) Key() string {
	return q.key
}

// Snapshot returns the current state of the query.
func (q *Query[T]) Snapshot() Snapshot[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snapshot
}

// Fetch starts a background fetch unless one is already in flight.
func (q *Query[T]) Fetch() {
	q.mu.Lock()
	q.startLocked()
	q.mu.Unlock()
	q.client.publish(q.key)
}

// Refetch fetches and waits for the result, or for ctx to be done.
func (q *Query[T]) Refetch(ctx context.Context) Snapshot[T] {
	q.mu.Lock()
	idle := q.startLocked()
	q.mu.Unlock()
	q.client.publish(q.key)

	select {
	case <-idle:
	case <-ctx.Done():
	}
	return q.Snapshot()
}

func (q *Query[T]) invalidate() {
	q.mu.Lock()
	q.version++
	q.snapshot.IsStale = true
	q.startLocked()
	q.mu.Unlock()
	q.client.publish(q.key)
}

// startLocked starts the fetch loop if it is not running and returns a
// channel closed when the loop ends. A running loop notices new versions on
// its own.
func (q *Query[T]) startLocked() <-chan struct{} {
	if q.running {
		return q.idle
	}
	q.idle = make(chan struct{})
	if !q.client.spawn(q.run) {
		close(q.idle)
		return q.idle
	}
	q.running = true
	q.snapshot.IsLoading = true
	return q.idle
}

// run fetches until the result postdates the latest invalidation.
func (q *Query[T]) run() {
	for {
		q.mu.Lock()
		version := q.version
		q.mu.Unlock()

		data, err := q.fetch(q.client.ctx)

		q.mu.Lock()
		if !q.client.alive() {
			q.stopLocked()
			q.mu.Unlock()
			return
		}
		if err != nil {
			log.Debug("query fetch failed", "key", q.key, "error", err)
			q.snapshot.Err = err
		} else {
			q.snapshot.Data = data
			q.snapshot.HasData = true
			q.snapshot.Err = nil
			q.snapshot.UpdatedAt = time.Now()
			if q.version == version {
				q.snapshot.IsStale = false
			}
		}
		// An invalidation that arrived mid-fetch gets its own fetch, even
		// when this one failed.
		again := q.version != version
		if !again {
			q.stopLocked()
		}
		q.mu.Unlock()
		q.client.publish(q.key)

		if !again {
			return
		}
	}
}

func (q *Query[T]) stopLocked() {
	q.running = false
	q.snapshot.IsLoading = false
	close(q.idle)
}
