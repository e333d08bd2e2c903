package linkcache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/dendrascience/linkcache/internal/metrics"
	"github.com/dendrascience/linkcache/util"
	"go.uber.org/zap"
)

// escapedSlash is how a slash appears inside the exported JSON strings.
const escapedSlash = `\/`

// Resolver maps captured URLs to cached files and returns the text that
// replaces them.
//
// Resolver is safe for concurrent use. It holds no mutable state: every call
// hashes with a fresh state and the cache directory is coordinated only
// through exclusive file creation.
type Resolver struct {
	root    string
	fetcher Fetcher
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolverLogger sets the logger. The default discards everything.
func WithResolverLogger(logger *zap.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithResolverMetrics sets the metrics sink.
func WithResolverMetrics(m *metrics.Metrics) ResolverOption {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// NewResolver creates a Resolver storing downloads below root.
func NewResolver(root string, fetcher Fetcher, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		root:    filepath.ToSlash(root),
		fetcher: fetcher,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the replacement for a captured URL value, including its
// surrounding quotes:
//
//	"content\/abc\/def...png#https%3A%2F%2Ffiles.slack.com%2Fa.png"
//
// The URL is downloaded only if its cache file does not exist yet. Errors
// wrap util.ErrURLParse, util.ErrFileSystem, util.ErrNetwork or
// util.ErrWrite.
func (r *Resolver) Resolve(ctx context.Context, raw string) (string, error) {
	requestURL, keyURL, err := CanonicalURL(raw)
	if err != nil {
		return "", err
	}
	key := keyURL.String()
	cachePath := r.CachePath(keyURL)

	if err := r.ensure(ctx, cachePath, requestURL); err != nil {
		return "", err
	}
	return Fragment(cachePath, key), nil
}

// CachePath returns the slash separated cache path for a canonical URL.
func (r *Resolver) CachePath(keyURL *url.URL) string {
	return util.CachePathForKey(r.root, keyURL.String(), keyURL.EscapedPath())
}

// ensure makes sure cachePath holds the body of requestURL, downloading it
// if this call is the one that creates the file.
func (r *Resolver) ensure(ctx context.Context, cachePath string, requestURL *url.URL) error {
	path := filepath.FromSlash(cachePath)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("%w: create cache directory for %s: %w", util.ErrFileSystem, path, err)
	}

	// O_EXCL is the only guard around the slot. Checking for existence
	// first would let two writers through.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if errors.Is(err, fs.ErrExist) {
		r.metrics.CacheHit()
		r.logger.Debug("cache hit", zap.String("path", path))
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: create cache file %s: %w", util.ErrFileSystem, path, err)
	}

	n, err := r.download(ctx, f, requestURL)
	if cerr := f.Close(); err == nil && cerr != nil {
		r.metrics.DownloadFailed("write")
		err = fmt.Errorf("%w: close %s: %w", util.ErrWrite, path, cerr)
	}
	if err != nil {
		// Give the slot back so a later run can retry the download.
		if rmErr := os.Remove(path); rmErr != nil {
			r.logger.Warn("failed to release cache file", zap.String("path", path), zap.Error(rmErr))
		}
		return err
	}

	r.metrics.Downloaded(n)
	r.logger.Debug("downloaded",
		zap.String("url", requestURL.Redacted()),
		zap.String("path", path),
		zap.Int64("bytes", n),
	)
	return nil
}

func (r *Resolver) download(ctx context.Context, w io.Writer, u *url.URL) (int64, error) {
	body, err := r.fetcher.Fetch(ctx, u)
	if err != nil {
		if errors.Is(err, util.ErrBadStatus) {
			r.metrics.DownloadFailed("status")
		} else {
			r.metrics.DownloadFailed("network")
		}
		return 0, err
	}
	defer body.Close()

	tw := &trackingWriter{w: w}
	if _, err := io.Copy(tw, body); err != nil {
		if tw.err != nil {
			r.metrics.DownloadFailed("write")
			return tw.n, fmt.Errorf("%w: write %s: %w", util.ErrWrite, u.Redacted(), err)
		}
		r.metrics.DownloadFailed("network")
		return tw.n, fmt.Errorf("%w: read body of %s: %w", util.ErrNetwork, u.Redacted(), err)
	}
	return tw.n, nil
}

// trackingWriter counts bytes and remembers write errors so a failed copy
// can be blamed on the right side.
type trackingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	t.n += int64(n)
	if err != nil {
		t.err = err
	}
	return n, err
}

// CanonicalURL unescapes a captured URL and splits it into the URL to fetch
// (fragment removed) and the URL to hash (fragment and query removed). URLs
// differing only in their query string share a cache entry.
func CanonicalURL(raw string) (request, key *url.URL, err error) {
	u, err := url.Parse(strings.ReplaceAll(raw, escapedSlash, "/"))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", util.ErrURLParse, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, nil, fmt.Errorf("%w: %q is not an absolute URL", util.ErrURLParse, raw)
	}
	u.Fragment = ""
	u.RawFragment = ""

	req := *u
	k := *u
	k.RawQuery = ""
	k.ForceQuery = false
	return &req, &k, nil
}

// Fragment builds the quoted replacement value for a cache path and the
// canonical URL it was derived from.
func Fragment(cachePath, key string) string {
	var b strings.Builder
	b.Grow(len(cachePath) + len(key)*3 + 8)
	b.WriteByte('"')
	b.WriteString(strings.ReplaceAll(cachePath, "/", escapedSlash))
	b.WriteByte('#')
	b.WriteString(PercentEncode(key))
	b.WriteByte('"')
	return b.String()
}

// PercentEncode escapes every byte except ASCII letters, digits and "-_.~".
// Spaces become %20.
func PercentEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
