package gtfsrt

import (
	"compress/flate"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// FeedFetchError reports an upstream HTTP failure while fetching the
// realtime feed. The caller decides whether and when to retry.
type FeedFetchError struct {
	URL        string
	StatusCode int
}

func (e *FeedFetchError) Error() string {
	return fmt.Sprintf("request %s failed with HTTP response code %d", e.URL, e.StatusCode)
}

// Client fetches raw GTFS-RT feed bytes from a URL or a local path.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
}

// NewClient creates a feed client. headers are added to every request,
// e.g. for API keys.
func NewClient(headers map[string]string) *Client {
	return &Client{httpClient: &http.Client{}, headers: headers}
}

// SetTimeout bounds every fetch. Zero means no limit.
func (c *Client) SetTimeout(d time.Duration) {
	c.httpClient.Timeout = d
}

// Fetch returns the raw feed bytes behind source, which is either an HTTP(S)
// URL or a filesystem path. Redirects are followed and gzip/deflate
// transport encoding is undone.
func (c *Client) Fetch(source string) ([]byte, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		raw, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("please provide a valid url or a path to a GTFS-RT feed: %w", err)
		}
		return raw, nil
	}

	req, err := http.NewRequest(http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", source, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, &FeedFetchError{URL: source, StatusCode: resp.StatusCode}
	}

	var body io.Reader = resp.Body
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		body = gz
	case "deflate":
		body = flate.NewReader(resp.Body)
	}
	return io.ReadAll(body)
}
