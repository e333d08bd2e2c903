package linkcache

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dendrascience/linkcache/internal/config"
	"github.com/dendrascience/linkcache/internal/metrics"
	"go.uber.org/zap"
)

// ErrNoResolver is returned by ProcessLine on a Rewriter built without a
// URLResolver.
var ErrNoResolver = errors.New("rewriter has no resolver")

// URLResolver turns a captured URL value into its quoted replacement.
type URLResolver interface {
	Resolve(ctx context.Context, raw string) (string, error)
}

// URLMatch is one quoted "field": "url" pair found in a line. Start and End
// delimit URL inside the line, without the quotes. URL is still in the
// escaped-slash form used by the export.
type URLMatch struct {
	Field   string
	URL     string
	Start   int
	End     int
	Skipped bool
}

// Rewriter is a LineProcessor that replaces qualifying URL values with
// references to the local cache.
type Rewriter struct {
	resolver URLResolver
	hosts    []string
	pattern  *regexp.Regexp
	skip     map[string]struct{}
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// RewriterOption configures a Rewriter.
type RewriterOption func(*Rewriter)

// WithHosts replaces the host allow-list.
func WithHosts(hosts []string) RewriterOption {
	return func(r *Rewriter) {
		r.hosts = hosts
	}
}

// WithSkipFields replaces the field skip-list. An empty list rewrites every
// matching field.
func WithSkipFields(fields []string) RewriterOption {
	return func(r *Rewriter) {
		r.skip = make(map[string]struct{}, len(fields))
		for _, f := range fields {
			r.skip[f] = struct{}{}
		}
	}
}

// WithRewriterLogger sets the logger. The default discards everything.
func WithRewriterLogger(logger *zap.Logger) RewriterOption {
	return func(r *Rewriter) {
		r.logger = logger
	}
}

// WithRewriterMetrics sets the metrics sink.
func WithRewriterMetrics(m *metrics.Metrics) RewriterOption {
	return func(r *Rewriter) {
		r.metrics = m
	}
}

// NewRewriter creates a Rewriter using the default hosts and skip-list
// unless overridden. resolver may be nil when only Matches is used.
func NewRewriter(resolver URLResolver, opts ...RewriterOption) (*Rewriter, error) {
	r := &Rewriter{
		resolver: resolver,
		hosts:    config.DefaultHosts,
		logger:   zap.NewNop(),
	}
	WithSkipFields(config.DefaultSkipFields)(r)
	for _, opt := range opts {
		opt(r)
	}

	pattern, err := BuildPattern(r.hosts)
	if err != nil {
		return nil, err
	}
	r.pattern = pattern
	return r, nil
}

// BuildPattern compiles the matcher for quoted "field": "url" pairs whose
// URL, written with escaped slashes, is on one of hosts or one subdomain
// label below it. Group 1 is the field name and group 2 the URL.
func BuildPattern(hosts []string) (*regexp.Regexp, error) {
	if len(hosts) == 0 {
		return nil, errors.New("at least one host is required")
	}
	alts := make([]string, len(hosts))
	for i, h := range hosts {
		alts[i] = regexp.QuoteMeta(h)
	}
	expr := `"(\w+)": ?"(https?:\\/\\/(?:\w+?\.)?(?:` + strings.Join(alts, "|") + `)\\/.+?)"`
	pattern, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compile host pattern: %w", err)
	}
	return pattern, nil
}

// Skips reports whether URLs under field are left untouched.
func (r *Rewriter) Skips(field string) bool {
	_, ok := r.skip[field]
	return ok
}

// Matches returns every qualifying pair in line, left to right, without
// resolving anything.
func (r *Rewriter) Matches(line string) []URLMatch {
	idx := r.pattern.FindAllStringSubmatchIndex(line, -1)
	if len(idx) == 0 {
		return nil
	}
	matches := make([]URLMatch, 0, len(idx))
	for _, m := range idx {
		field := line[m[2]:m[3]]
		matches = append(matches, URLMatch{
			Field:   field,
			URL:     line[m[4]:m[5]],
			Start:   m[4],
			End:     m[5],
			Skipped: r.Skips(field),
		})
	}
	return matches
}

// ProcessLine implements LineProcessor. Matches are resolved left to right;
// text outside the replaced values is copied verbatim. If nothing is
// replaced the line is returned as is.
func (r *Rewriter) ProcessLine(ctx context.Context, line string) (string, error) {
	idx := r.pattern.FindAllStringSubmatchIndex(line, -1)
	if len(idx) == 0 {
		return line, nil
	}

	var b strings.Builder
	offset := 0
	for _, m := range idx {
		field := line[m[2]:m[3]]
		if r.Skips(field) {
			r.metrics.URLSkipped()
			continue
		}
		if r.resolver == nil {
			return "", ErrNoResolver
		}

		fragment, err := r.resolver.Resolve(ctx, line[m[4]:m[5]])
		if err != nil {
			return "", fmt.Errorf("field %q: %w", field, err)
		}
		if offset == 0 {
			b.Grow(len(line) + len(fragment))
		}
		// m[4]-1 and m[5]+1 are the quotes around the value; the fragment
		// brings its own.
		b.WriteString(line[offset : m[4]-1])
		b.WriteString(fragment)
		offset = m[5] + 1
		r.metrics.URLRewritten()
	}

	if offset == 0 {
		return line, nil
	}
	b.WriteString(line[offset:])
	return b.String(), nil
}
