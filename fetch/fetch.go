// Package fetch retrieves raw bytes from URLs or local paths.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/wippyai/gamehost/errors"
)

// Fetcher retrieves the full payload behind a path or URL.
type Fetcher interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, path string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, path string) ([]byte, error) {
	return f(ctx, path)
}

// Client fetches http(s) URLs with an HTTP client and everything else
// from the filesystem. The zero value is ready to use.
type Client struct {
	HTTP *http.Client
}

// Default is the shared fetcher used when callers do not supply one.
var Default = &Client{}

// Fetch is shorthand for Default.Fetch.
func Fetch(ctx context.Context, path string) ([]byte, error) {
	return Default.Fetch(ctx, path)
}

// Fetch returns the complete payload. Every failure is a load failure in
// the fetch phase; there is no retry.
func (c *Client) Fetch(ctx context.Context, path string) ([]byte, error) {
	if path == "" {
		return nil, errors.LoadFailure(errors.PhaseFetch, "empty path", nil)
	}

	u, err := url.Parse(path)
	if err == nil {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return c.fetchHTTP(ctx, path)
		case "file":
			return readFile(ctx, u.Path)
		}
	}
	return readFile(ctx, path)
}

func (c *Client) fetchHTTP(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.LoadFailure(errors.PhaseFetch, "build request for "+rawURL, err)
	}

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, errors.LoadFailure(errors.PhaseFetch, "GET "+rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.New(errors.PhaseFetch, errors.KindLoadFailure).
			Value(resp.StatusCode).
			Detail("GET %s: %s", rawURL, resp.Status).
			Build()
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.LoadFailure(errors.PhaseFetch, "read body of "+rawURL, err)
	}
	return data, nil
}

func readFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.LoadFailure(errors.PhaseFetch, "read "+path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.LoadFailure(errors.PhaseFetch, fmt.Sprintf("read %s", path), err)
	}
	return data, nil
}
