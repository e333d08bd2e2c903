package linkcache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dendrascience/linkcache/util"
)

// Fetcher retrieves the body behind a URL.
type Fetcher interface {
	// Fetch returns the response body for u. The caller closes it.
	Fetch(ctx context.Context, u *url.URL) (io.ReadCloser, error)
}

// HTTPFetcher performs plain GET requests: no custom headers, no
// authentication and the client's default redirect policy.
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcher creates an HTTPFetcher. A zero timeout means no timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{Client: &http.Client{Timeout: timeout}}
}

// Fetch implements Fetcher. Transport failures wrap util.ErrNetwork; a non-2xx
// response additionally wraps util.ErrBadStatus.
func (f *HTTPFetcher) Fetch(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request for %s: %w", util.ErrNetwork, u.Redacted(), err)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %w", util.ErrNetwork, u.Redacted(), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("%w: get %s: %w: %s", util.ErrNetwork, u.Redacted(), util.ErrBadStatus, resp.Status)
	}
	return resp.Body, nil
}
