package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// waitFor polls cond until it holds or the test times out.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestQuery_InitialFetch(t *testing.T) {
	c := NewClient()
	defer c.Close()

	release := make(chan struct{})
	q := NewQuery(c, "articles", func(ctx context.Context) ([]string, error) {
		<-release
		return []string{"a"}, nil
	})

	if s := q.Snapshot(); s.IsLoading || s.HasData {
		t.Fatalf("new query should be idle: %+v", s)
	}

	q.Fetch()
	if s := q.Snapshot(); !s.IsInitialLoading() {
		t.Fatalf("want initial loading, got %+v", s)
	}

	close(release)
	waitFor(t, func() bool { return !q.Snapshot().IsLoading })

	s := q.Snapshot()
	if !s.HasData || len(s.Data) != 1 || s.Data[0] != "a" {
		t.Errorf("unexpected snapshot %+v", s)
	}
	if s.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set")
	}
}

func TestQuery_FetchWhileRunningIsDeduplicated(t *testing.T) {
	c := NewClient()
	defer c.Close()

	var calls atomic.Int32
	release := make(chan struct{})
	q := NewQuery(c, "k", func(ctx context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 1, nil
	})

	q.Fetch()
	q.Fetch()
	q.Fetch()
	close(release)
	waitFor(t, func() bool { return !q.Snapshot().IsLoading })

	if got := calls.Load(); got != 1 {
		t.Errorf("fetch ran %d times, want 1", got)
	}
}

func TestQuery_InvalidateMarksStaleThenFresh(t *testing.T) {
	c := NewClient()
	defer c.Close()

	var n atomic.Int32
	gate := make(chan struct{}, 1)
	q := NewQuery(c, "k", func(ctx context.Context) (int32, error) {
		<-gate
		return n.Add(1), nil
	})

	gate <- struct{}{}
	q.Refetch(context.Background())

	c.Invalidate("k")
	s := q.Snapshot()
	if !s.IsStale || !s.IsLoading {
		t.Fatalf("want stale and loading right after invalidate, got %+v", s)
	}
	if s.Data != 1 {
		t.Errorf("stale data should still be visible, got %d", s.Data)
	}

	gate <- struct{}{}
	waitFor(t, func() bool { return !q.Snapshot().IsLoading })
	if s := q.Snapshot(); s.IsStale || s.Data != 2 {
		t.Errorf("want fresh data 2, got %+v", s)
	}
}

func TestQuery_InvalidateDuringFetchRefetchesAgain(t *testing.T) {
	c := NewClient()
	defer c.Close()

	var calls atomic.Int32
	started := make(chan struct{}, 4)
	release := make(chan struct{}, 4)
	q := NewQuery(c, "k", func(ctx context.Context) (int32, error) {
		n := calls.Add(1)
		started <- struct{}{}
		<-release
		return n, nil
	})

	q.Fetch()
	<-started
	c.Invalidate("k")
	release <- struct{}{}

	<-started
	if s := q.Snapshot(); !s.IsStale {
		t.Errorf("result predating the invalidation must stay stale: %+v", s)
	}
	release <- struct{}{}

	waitFor(t, func() bool { return !q.Snapshot().IsLoading })
	s := q.Snapshot()
	if calls.Load() != 2 {
		t.Errorf("fetch ran %d times, want 2", calls.Load())
	}
	if s.IsStale || s.Data != 2 {
		t.Errorf("want fresh data from the follow-up fetch, got %+v", s)
	}
}

func TestQuery_InvalidateDuringFailingFetchRefetchesAgain(t *testing.T) {
	c := NewClient()
	defer c.Close()

	var calls atomic.Int32
	started := make(chan struct{}, 4)
	release := make(chan struct{}, 4)
	q := NewQuery(c, "articles", func(ctx context.Context) ([]string, error) {
		n := calls.Add(1)
		started <- struct{}{}
		<-release
		if n == 1 {
			return nil, errors.New("transient")
		}
		return []string{"a"}, nil
	})

	q.Fetch()
	<-started
	c.Invalidate("articles")
	release <- struct{}{}

	<-started
	release <- struct{}{}

	waitFor(t, func() bool { return !q.Snapshot().IsLoading })
	s := q.Snapshot()
	if calls.Load() != 2 {
		t.Errorf("fetch ran %d times, want 2", calls.Load())
	}
	if s.IsStale || s.Err != nil || len(s.Data) != 1 {
		t.Errorf("want fresh data from the follow-up fetch, got %+v", s)
	}
}

func TestClient_NoFetchAfterClose(t *testing.T) {
	c := NewClient()
	var calls atomic.Int32
	q := NewQuery(c, "articles", func(ctx context.Context) (int, error) {
		calls.Add(1)
		return 1, nil
	})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Invalidate("articles")
		}()
	}
	c.Close()
	wg.Wait()
	before := calls.Load()

	c.Invalidate("articles")
	if s := q.Refetch(context.Background()); s.IsLoading {
		t.Errorf("closed client left a fetch running: %+v", s)
	}
	if calls.Load() != before {
		t.Errorf("fetch ran after Close")
	}
}

func TestQuery_FailedRefetchKeepsData(t *testing.T) {
	c := NewClient()
	defer c.Close()

	boom := errors.New("boom")
	var fail atomic.Bool
	q := NewQuery(c, "k", func(ctx context.Context) (string, error) {
		if fail.Load() {
			return "", boom
		}
		return "old", nil
	})

	if s := q.Refetch(context.Background()); s.Data != "old" {
		t.Fatalf("initial fetch: %+v", s)
	}

	fail.Store(true)
	c.Invalidate("k")
	waitFor(t, func() bool { return !q.Snapshot().IsLoading })

	s := q.Snapshot()
	if s.Data != "old" || !s.HasData {
		t.Errorf("data lost after failed refetch: %+v", s)
	}
	if !errors.Is(s.Err, boom) {
		t.Errorf("Err = %v, want boom", s.Err)
	}
	if !s.IsStale {
		t.Error("failed refetch must leave the snapshot stale")
	}

	fail.Store(false)
	s = q.Refetch(context.Background())
	if s.Err != nil || s.IsStale {
		t.Errorf("successful refetch should clear error and staleness: %+v", s)
	}
}

func TestQuery_CloseDiscardsResults(t *testing.T) {
	c := NewClient()

	started := make(chan struct{})
	q := NewQuery(c, "k", func(ctx context.Context) (string, error) {
		close(started)
		<-ctx.Done()
		return "late", nil
	})

	q.Fetch()
	<-started
	c.Close()

	s := q.Snapshot()
	if s.HasData || s.Data != "" {
		t.Errorf("result after Close must be discarded: %+v", s)
	}
	if s.IsLoading {
		t.Error("IsLoading should be cleared after Close")
	}

	// Starting a fetch on a closed client is a no-op.
	q.Fetch()
	if q.Snapshot().IsLoading {
		t.Error("fetch started on a closed client")
	}
}

func TestQuery_RefetchHonoursContext(t *testing.T) {
	c := NewClient()
	defer c.Close()

	release := make(chan struct{})
	defer close(release)
	q := NewQuery(c, "k", func(ctx context.Context) (int, error) {
		<-release
		return 1, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if s := q.Refetch(ctx); s.HasData || !s.IsLoading {
		t.Errorf("want loading snapshot after timeout, got %+v", s)
	}
}

func TestClient_InvalidateUnknownKey(t *testing.T) {
	c := NewClient()
	defer c.Close()
	c.Invalidate("nope")
}

func TestClient_UpdatesAreCoalesced(t *testing.T) {
	c := NewClient()
	defer c.Close()

	var mu sync.Mutex
	mu.Lock()
	q := NewQuery(c, "k", func(ctx context.Context) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		return 1, nil
	})

	q.Fetch()
	c.Invalidate("k")
	c.Invalidate("k")

	select {
	case key := <-c.Updates():
		if key != "k" {
			t.Fatalf("update for %q, want k", key)
		}
	case <-time.After(time.Second):
		t.Fatal("no update delivered")
	}
	select {
	case key := <-c.Updates():
		t.Fatalf("unacked key delivered twice: %q", key)
	default:
	}

	c.Ack("k")
	mu.Unlock()

	select {
	case <-c.Updates():
	case <-time.After(time.Second):
		t.Fatal("no update after ack")
	}
}
