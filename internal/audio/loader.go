package audio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// maxSourceSize bounds the encoded bytes read from one source.
const maxSourceSize = 256 << 20

// Loader fetches the encoded bytes of a source.
type Loader interface {
	Load(ctx context.Context, src string) ([]byte, error)
}

// SourceLoader reads http(s) URLs with an HTTP client and anything else
// from the local filesystem.
type SourceLoader struct {
	Client *http.Client
}

// Load fetches src.
func (l SourceLoader) Load(ctx context.Context, src string) ([]byte, error) {
	if !IsRemote(src) {
		path := strings.TrimPrefix(src, "file://")
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read audio file: %w", err)
		}
		return b, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid audio url: %w", err)
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audio: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("failed to fetch audio: %s", resp.Status)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	return b, nil
}

// IsRemote reports whether src is an http or https URL.
func IsRemote(src string) bool {
	u, err := url.Parse(src)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}
