package query

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/articlereader/articlereader/internal/api"
	"github.com/articlereader/articlereader/internal/api/apitest"
)

type submitInput struct {
	URL   string
	Voice string
}

type fixture struct {
	backend  *apitest.Backend
	client   *Client
	articles *Query[[]api.Article]
	submit   *Mutation[submitInput, api.Article]
	remove   *Mutation[string, api.Ack]
}

func newFixture(t *testing.T, seed ...api.Article) *fixture {
	t.Helper()
	backend := apitest.NewBackend(t, seed...)
	gw, err := api.NewClient(api.Config{BaseURL: backend.URL()})
	if err != nil {
		t.Fatal(err)
	}

	c := NewClient()
	t.Cleanup(c.Close)

	f := &fixture{backend: backend, client: c}
	f.articles = NewQuery(c, "articles", gw.ListArticles)
	f.submit = NewMutation(c, "submit", func(ctx context.Context, in submitInput) (api.Article, error) {
		return gw.SubmitArticle(ctx, in.URL, in.Voice)
	}, "articles")
	f.remove = NewMutation(c, "delete", gw.DeleteArticle, "articles")

	if s := f.articles.Refetch(context.Background()); s.Err != nil {
		t.Fatalf("initial fetch failed: %v", s.Err)
	}
	return f
}

func (f *fixture) settled(t *testing.T) Snapshot[[]api.Article] {
	t.Helper()
	waitFor(t, func() bool {
		s := f.articles.Snapshot()
		return !s.IsLoading
	})
	return f.articles.Snapshot()
}

func TestMutation_SubmitInvalidatesList(t *testing.T) {
	f := newFixture(t)

	a, err := f.submit.Mutate(context.Background(), submitInput{URL: "https://example.com/a", Voice: "en-US-Standard-A"})
	if err != nil {
		t.Fatalf("Mutate failed: %v", err)
	}

	st := f.submit.State()
	if !st.IsSuccess || st.IsPending || st.Err != nil || st.Data.ID != a.ID {
		t.Errorf("unexpected state %+v", st)
	}

	s := f.settled(t)
	found, ok := api.Find(s.Data, a.ID)
	if !ok {
		t.Fatalf("submitted article missing from refetched list: %+v", s.Data)
	}
	if found.ContentURL != "https://example.com/a" {
		t.Errorf("content_url = %q", found.ContentURL)
	}
	if s.IsStale {
		t.Error("list still stale after refetch")
	}
}

func TestMutation_DeleteInvalidatesList(t *testing.T) {
	f := newFixture(t, api.Article{ID: "x", Title: "X"}, api.Article{ID: "y", Title: "Y"})

	if _, err := f.remove.Mutate(context.Background(), "x"); err != nil {
		t.Fatalf("Mutate failed: %v", err)
	}

	s := f.settled(t)
	if _, ok := api.Find(s.Data, "x"); ok {
		t.Error("deleted article still listed")
	}
	if _, ok := api.Find(s.Data, "y"); !ok {
		t.Error("other article disappeared")
	}
}

func TestMutation_FailureDoesNotInvalidate(t *testing.T) {
	f := newFixture(t, api.Article{ID: "x"})
	f.backend.Fail(apitest.Delete, http.StatusInternalServerError)
	before := len(f.backend.Requests())

	_, err := f.remove.Mutate(context.Background(), "x")
	if !errors.Is(err, api.ErrDeletion) {
		t.Fatalf("want ErrDeletion, got %v", err)
	}

	st := f.remove.State()
	if st.IsSuccess || st.IsPending || !errors.Is(st.Err, api.ErrDeletion) {
		t.Errorf("unexpected state %+v", st)
	}
	if s := f.articles.Snapshot(); s.IsStale || s.IsLoading {
		t.Errorf("failed mutation must not invalidate: %+v", s)
	}
	if got := len(f.backend.Requests()) - before; got != 1 {
		t.Errorf("backend saw %d requests, want only the delete", got)
	}

	f.remove.Reset()
	if st := f.remove.State(); st.Err != nil || st.IsSuccess {
		t.Errorf("Reset left state %+v", st)
	}
}

func TestMutation_PendingState(t *testing.T) {
	c := NewClient()
	defer c.Close()

	release := make(chan struct{})
	m := NewMutation(c, "m", func(ctx context.Context, in int) (int, error) {
		<-release
		return in * 2, nil
	})

	done := make(chan int)
	go func() {
		out, _ := m.Mutate(context.Background(), 21)
		done <- out
	}()

	waitFor(t, func() bool { return m.State().IsPending })
	close(release)
	if out := <-done; out != 42 {
		t.Errorf("Mutate returned %d, want 42", out)
	}
	if st := m.State(); st.IsPending || !st.IsSuccess || st.Data != 42 {
		t.Errorf("unexpected state %+v", st)
	}
}
