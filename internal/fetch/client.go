package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/danisty/LethalManager/internal/version"
)

// Fetcher is the interface for retrieving remote resources
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPClient is the default Fetcher backed by net/http
type HTTPClient struct {
	Client    *http.Client
	UserAgent string
}

// NewClient creates a new HTTP fetcher. No timeout is applied; cancel the
// context to abort a download.
func NewClient() *HTTPClient {
	return &HTTPClient{
		Client:    &http.Client{},
		UserAgent: "lethal-manager/" + version.Version,
	}
}

// Fetch performs a GET request and returns the whole body
func (c *HTTPClient) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", url, err)
	}
	return data, nil
}

// StatusError represents a non-2xx HTTP response
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}
