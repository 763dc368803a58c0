package ui

import (
	"context"

	"github.com/articlereader/articlereader/internal/api"
	"github.com/articlereader/articlereader/internal/playback"
	"github.com/articlereader/articlereader/internal/preview"
	"github.com/articlereader/articlereader/internal/query"
)

// Query keys.
const (
	articlesKey = "articles"
	submitKey   = "submit-article"
	deleteKey   = "delete-article"
)

// SubmitRequest is the input of the submit mutation.
type SubmitRequest struct {
	URL   string
	Voice string
}

// Services are the stateful components the dashboard drives.
type Services struct {
	Queries  *query.Client
	Articles *query.Query[[]api.Article]
	Submit   *query.Mutation[SubmitRequest, api.Article]
	Delete   *query.Mutation[string, api.Ack]
	Player   *playback.Controller
	Preview  *preview.Previewer
}

// NewServices wires the article queries and mutations to gw. Successful
// submissions and deletions invalidate the article list.
func NewServices(gw *api.Client, player *playback.Controller, previewer *preview.Previewer) *Services {
	qc := query.NewClient()
	return &Services{
		Queries:  qc,
		Articles: query.NewQuery(qc, articlesKey, gw.ListArticles),
		Submit: query.NewMutation(qc, submitKey, func(ctx context.Context, in SubmitRequest) (api.Article, error) {
			return gw.SubmitArticle(ctx, in.URL, in.Voice)
		}, articlesKey),
		Delete:  query.NewMutation(qc, deleteKey, gw.DeleteArticle, articlesKey),
		Player:  player,
		Preview: previewer,
	}
}

// Close stops background fetches and releases the audio.
func (s *Services) Close() {
	s.Queries.Close()
	if s.Preview != nil {
		_ = s.Preview.Close()
	}
	if s.Player != nil {
		_ = s.Player.Close()
	}
}
