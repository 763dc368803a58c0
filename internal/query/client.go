// Package query is a small client-side cache of named server resources.
//
// A Query holds the last fetched snapshot of one resource. Invalidating its
// key marks the snapshot stale and refetches it in the background; readers
// keep seeing the previous data until the refetch resolves. Mutations never
// write to the cache directly: on success they invalidate the keys they
// affect.
package query

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
)

// refetcher is implemented by every Query regardless of its data type.
type refetcher interface {
	invalidate()
}

// Client is the registry of queries. Its liveness context is shared by all
// background fetches and cancelled by Close.
type Client struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	queries map[string]refetcher

	updates chan string
	pending map[string]bool
	pmu     sync.Mutex

	life   sync.Mutex // orders spawn against Close
	closed bool
	wg     sync.WaitGroup
}

// NewClient creates a new query client.
func NewClient() *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		ctx:     ctx,
		cancel:  cancel,
		queries: make(map[string]refetcher),
		updates: make(chan string, 16),
		pending: make(map[string]bool),
	}
}

func (c *Client) register(key string, q refetcher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries[key] = q
}

// Invalidate marks the query stored under key as stale and refetches it in
// the background. Unknown keys are ignored.
func (c *Client) Invalidate(key string) {
	c.mu.RLock()
	q, ok := c.queries[key]
	c.mu.RUnlock()
	if !ok {
		log.Debug("invalidate: unknown query", "key", key)
		return
	}
	q.invalidate()
}

// Updates delivers the key of every query whose snapshot changed. Deliveries
// are coalesced per key, so a slow reader sees each key at most once per
// read.
func (c *Client) Updates() <-chan string {
	return c.updates
}

// Ack must be called by the reader after receiving key from Updates so that
// further changes to it are delivered again.
func (c *Client) Ack(key string) {
	c.pmu.Lock()
	delete(c.pending, key)
	c.pmu.Unlock()
}

// publish announces a change without ever blocking the writer.
func (c *Client) publish(key string) {
	c.pmu.Lock()
	defer c.pmu.Unlock()
	if c.pending[key] || c.ctx.Err() != nil {
		return
	}
	select {
	case c.updates <- key:
		c.pending[key] = true
	default:
		log.Debug("query update dropped", "key", key)
	}
}

// alive reports whether results may still be applied.
func (c *Client) alive() bool {
	return c.ctx.Err() == nil
}

// spawn runs f in a goroutine tracked by Close. It reports false once the
// client is closed.
func (c *Client) spawn(f func()) bool {
	c.life.Lock()
	defer c.life.Unlock()
	if c.closed {
		return false
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		f()
	}()
	return true
}

// Close cancels outstanding fetches and waits for them to return. Results
// that arrive afterwards are discarded.
func (c *Client) Close() {
	c.life.Lock()
	c.closed = true
	c.cancel()
	c.life.Unlock()
	c.wg.Wait()
}
