package linkcache

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dendrascience/linkcache/internal/metrics"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

// Progress prints one line per processed file. It is not a machine readable
// format. Lines from concurrent jobs are never interleaved.
type Progress struct {
	mu    sync.Mutex
	out   io.Writer
	path  *color.Color
	label *color.Color
}

// NewProgress creates a Progress writing to out. Colors follow fatih/color's
// terminal detection unless colored is false.
func NewProgress(out io.Writer, colored bool) *Progress {
	p := &Progress{
		out:   out,
		path:  color.New(color.FgCyan),
		label: color.New(color.Bold),
	}
	if !colored {
		p.path.DisableColor()
		p.label.DisableColor()
	}
	return p
}

// File reports that path is being processed.
func (p *Progress) File(path string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.path.Fprintln(p.out, path)
}

// Summary prints the totals of a run.
func (p *Progress) Summary(files int, elapsed time.Duration, s metrics.Snapshot) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.label.Fprint(p.out, "Done: ")
	fmt.Fprintf(p.out, "%s files in %s, %s URLs rewritten, %s downloaded (%s), %s cache hits\n",
		humanize.Comma(int64(files)),
		elapsed.Round(time.Millisecond),
		humanize.Comma(s.Rewritten),
		humanize.Comma(s.Downloads),
		humanize.Bytes(uint64(s.Bytes)),
		humanize.Comma(s.CacheHits),
	)
}
