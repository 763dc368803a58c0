package query

import (
	"context"
	"sync"
)

// MutateFunc performs a server-side change.
type MutateFunc[In, Out any] func(ctx context.Context, in In) (Out, error)

// MutationState is the status of the last Mutate call.
type MutationState[Out any] struct {
	IsPending bool
	IsSuccess bool
	Err       error
	Data      Out
}

// Mutation wraps a server-side change. On success it invalidates the query
// keys it affects; it never edits cached data itself.
type Mutation[In, Out any] struct {
	key         string
	fn          MutateFunc[In, Out]
	client      *Client
	invalidates []string

	mu    sync.Mutex
	state MutationState[Out]
	seq   uint64
}

// NewMutation creates a mutation. Its state changes are announced on the
// client's Updates channel under key.
func NewMutation[In, Out any](client *Client, key string, fn MutateFunc[In, Out], invalidates ...string) *Mutation[In, Out] {
	return &Mutation[In, Out]{
		key:         key,
		fn:          fn,
		client:      client,
		invalidates: invalidates,
	}
}

// Key returns the name under which state changes are published.
func (m *Mutation[In, Out]) Key() string {
	return m.key
}

// Call runs a mutation started with Begin.
type Call[In, Out any] func(ctx context.Context, in In) (Out, error)

// Mutate runs the mutation and blocks until it resolves. Concurrent calls
// are not serialized; the state reflects the most recent call.
func (m *Mutation[In, Out]) Mutate(ctx context.Context, in In) (Out, error) {
	m.mu.Lock()
	call := m.startLocked()
	m.mu.Unlock()
	m.client.publish(m.key)

	return call(ctx, in)
}

// Begin marks the mutation pending right away and returns the call that
// performs it. It reports false while another call is still pending, so
// callers that must not overlap can start from a non-blocking context.
func (m *Mutation[In, Out]) Begin() (Call[In, Out], bool) {
	m.mu.Lock()
	if m.state.IsPending {
		m.mu.Unlock()
		return nil, false
	}
	call := m.startLocked()
	m.mu.Unlock()
	m.client.publish(m.key)

	return call, true
}

func (m *Mutation[In, Out]) startLocked() Call[In, Out] {
	m.seq++
	seq := m.seq
	m.state = MutationState[Out]{IsPending: true}
	return func(ctx context.Context, in In) (Out, error) {
		return m.run(ctx, seq, in)
	}
}

func (m *Mutation[In, Out]) run(ctx context.Context, seq uint64, in In) (Out, error) {
	out, err := m.fn(ctx, in)

	if err == nil {
		for _, key := range m.invalidates {
			m.client.Invalidate(key)
		}
	}

	m.mu.Lock()
	if seq == m.seq {
		m.state = MutationState[Out]{IsSuccess: err == nil, Err: err}
		if err == nil {
			m.state.Data = out
		}
	}
	m.mu.Unlock()
	m.client.publish(m.key)

	return out, err
}

// State returns the status of the last call.
func (m *Mutation[In, Out]) State() MutationState[Out] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Reset clears the status, e.g. after an error was shown.
func (m *Mutation[In, Out]) Reset() {
	m.mu.Lock()
	m.seq++
	m.state = MutationState[Out]{}
	m.mu.Unlock()
	m.client.publish(m.key)
}
