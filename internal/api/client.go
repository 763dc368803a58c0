// Package api is the HTTP gateway to the article backend. It lists, submits
// and deletes articles and synthesizes voice samples. Calls are plain
// request/response: nothing is retried and the first failure is returned.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the backend used when none is configured.
const DefaultBaseURL = "http://localhost:8000"

const defaultUserAgent = "articlereader"

// Config holds configuration for the gateway client.
type Config struct {
	// BaseURL of the backend, e.g. "http://localhost:8000". Defaults to
	// DefaultBaseURL.
	BaseURL string

	// HTTPClient used for requests. Defaults to a client without timeout.
	HTTPClient *http.Client

	// RequestsPerMinute throttles outgoing requests. Zero disables throttling.
	RequestsPerMinute int

	// UserAgent sent with every request.
	UserAgent string
}

// Client talks to the article backend.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
}

// NewClient creates a new gateway client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", cfg.BaseURL)
	}

	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}

	return &Client{
		baseURL:    base,
		httpClient: cfg.HTTPClient,
		limiter:    limiter,
		userAgent:  cfg.UserAgent,
	}, nil
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// ListArticles fetches all articles.
func (c *Client) ListArticles(ctx context.Context) ([]Article, error) {
	const msg = "Network response was not ok"

	resp, err := c.do(ctx, http.MethodGet, "/articles", nil)
	if err != nil {
		return nil, newError(ErrorCodeNetwork, msg, 0, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if !ok(resp) {
		return nil, newError(ErrorCodeNetwork, msg, resp.StatusCode, statusCause(resp))
	}

	var articles []Article
	if err := json.NewDecoder(resp.Body).Decode(&articles); err != nil {
		return nil, newError(ErrorCodeNetwork, msg, resp.StatusCode, fmt.Errorf("failed to decode articles: %w", err))
	}
	if articles == nil {
		articles = []Article{}
	}
	return articles, nil
}

// SubmitArticle asks the backend to fetch url and synthesize it with the
// given voice model.
func (c *Client) SubmitArticle(ctx context.Context, articleURL, voiceModel string) (Article, error) {
	body := submitRequest{URL: articleURL, TextToSpeechModel: voiceModel}

	resp, err := c.do(ctx, http.MethodPost, "/articles", body)
	if err != nil {
		return Article{}, newError(ErrorCodeSubmission, "Failed to submit article", 0, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if !ok(resp) {
		msg := fmt.Sprintf("HTTP error! status: %d", resp.StatusCode)
		return Article{}, newError(ErrorCodeSubmission, msg, resp.StatusCode, statusCause(resp))
	}

	var article Article
	if err := json.NewDecoder(resp.Body).Decode(&article); err != nil {
		return Article{}, newError(ErrorCodeSubmission, "Failed to submit article", resp.StatusCode,
			fmt.Errorf("failed to decode article: %w", err))
	}
	return article, nil
}

// DeleteArticle deletes the article with the given id.
func (c *Client) DeleteArticle(ctx context.Context, id string) (Ack, error) {
	const msg = "Failed to delete article"

	resp, err := c.do(ctx, http.MethodDelete, "/articles/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, newError(ErrorCodeDeletion, msg, 0, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if !ok(resp) {
		return nil, newError(ErrorCodeDeletion, msg, resp.StatusCode, statusCause(resp))
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(ErrorCodeDeletion, msg, resp.StatusCode, err)
	}
	ack := Ack{}
	if len(bytes.TrimSpace(b)) == 0 {
		return ack, nil
	}
	if err := json.Unmarshal(b, &ack); err != nil {
		return nil, newError(ErrorCodeDeletion, msg, resp.StatusCode, fmt.Errorf("failed to decode ack: %w", err))
	}
	return ack, nil
}

// SynthesizeVoiceSample returns the raw audio of sampleText spoken by voiceID.
func (c *Client) SynthesizeVoiceSample(ctx context.Context, voiceID, sampleText string) ([]byte, error) {
	const msg = "Failed to generate test audio"

	body := voiceSampleRequest{Voice: voiceID, Text: sampleText}
	resp, err := c.do(ctx, http.MethodPost, "/articles/test-voice", body)
	if err != nil {
		return nil, newError(ErrorCodeSynthesis, msg, 0, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if !ok(resp) {
		return nil, newError(ErrorCodeSynthesis, msg, resp.StatusCode, statusCause(resp))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(ErrorCodeSynthesis, msg, resp.StatusCode, fmt.Errorf("failed to read audio: %w", err))
	}
	return audio, nil
}

// do sends a request with an optional JSON body. The caller closes the
// response body.
func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, r)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-Id", requestID)
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug("request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	log.Debug("request done",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"elapsed", time.Since(start))
	return resp, nil
}

func ok(resp *http.Response) bool {
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// statusCause describes an unsuccessful response, including a short
// excerpt of its body.
func statusCause(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if s := strings.TrimSpace(string(b)); s != "" {
		return fmt.Errorf("%s: %s", resp.Status, s)
	}
	return fmt.Errorf("%s", resp.Status)
}
