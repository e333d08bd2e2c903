package linkcache

import (
	"context"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"
)

// stubFetcher serves fixed bodies and records every request.
type stubFetcher struct {
	mu       sync.Mutex
	requests []string
	bodies   map[string]string // keyed by request URL; missing keys get "body:<url>"
	err      error
	delay    time.Duration
}

func (f *stubFetcher) Fetch(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	f.mu.Lock()
	f.requests = append(f.requests, u.String())
	err := f.err
	body, ok := f.bodies[u.String()]
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		body = "body:" + u.String()
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (f *stubFetcher) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

// recordingResolver returns a numbered replacement for every call.
type recordingResolver struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (r *recordingResolver) Resolve(_ context.Context, raw string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	r.calls = append(r.calls, raw)
	return `"LOCAL` + string(rune('0'+len(r.calls))) + `"`, nil
}

// failingWriter fails every write after limit bytes.
type failingWriter struct {
	limit int
	n     int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.n+len(p) > w.limit {
		return 0, io.ErrShortWrite
	}
	w.n += len(p)
	return len(p), nil
}

// esc writes a URL the way the export does, with escaped slashes.
func esc(u string) string {
	return strings.ReplaceAll(u, "/", `\/`)
}
