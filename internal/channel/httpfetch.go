package channel

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"relaybot/internal/relay"
)

// HTTPFetcher downloads workspace-hosted files. Private file URLs
// require the bot token as a bearer credential.
type HTTPFetcher struct {
	token  string
	client *http.Client
}

var _ relay.FileFetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher creates a fetcher authenticated with the given bot token.
func NewHTTPFetcher(token string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		token:  token,
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch downloads the given URL. The caller owns the returned body.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build file request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+f.token)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch file: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch file: unexpected status %d", resp.StatusCode)
	}
	return resp.Body, nil
}
