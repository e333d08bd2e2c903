package linkcache

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/dendrascience/linkcache/internal/metrics"
	"github.com/dendrascience/linkcache/util"
	"github.com/google/uuid"
)

// LineProcessor transforms one line of text. Implementations return line
// itself when nothing changes.
type LineProcessor interface {
	ProcessLine(ctx context.Context, line string) (string, error)
}

// LineProcessorFunc adapts a function to LineProcessor.
type LineProcessorFunc func(ctx context.Context, line string) (string, error)

// ProcessLine calls f.
func (f LineProcessorFunc) ProcessLine(ctx context.Context, line string) (string, error) {
	return f(ctx, line)
}

// Identity passes every line through unchanged.
var Identity LineProcessor = LineProcessorFunc(func(_ context.Context, line string) (string, error) {
	return line, nil
})

const streamBufferSize = 64 * 1024

// StreamProcessor applies a LineProcessor to a stream, one line at a time.
type StreamProcessor struct {
	lines   LineProcessor
	metrics *metrics.Metrics
}

// StreamOption configures a StreamProcessor.
type StreamOption func(*StreamProcessor)

// WithStreamMetrics sets the metrics sink.
func WithStreamMetrics(m *metrics.Metrics) StreamOption {
	return func(p *StreamProcessor) {
		p.metrics = m
	}
}

// NewStreamProcessor creates a StreamProcessor around lp.
func NewStreamProcessor(lp LineProcessor, opts ...StreamOption) *StreamProcessor {
	p := &StreamProcessor{lines: lp}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process reads r as "\n" separated lines, strips the terminator ("\n" or
// "\r\n"), transforms each line and writes it to w followed by a single
// "\n". Lines have no length limit. Output is flushed after every line.
//
// The first read, decode, transform or write error stops processing; output
// already written stays written.
func (p *StreamProcessor) Process(ctx context.Context, r io.Reader, w io.Writer) error {
	br := bufio.NewReaderSize(r, streamBufferSize)
	bw := bufio.NewWriterSize(w, streamBufferSize)

	for lineNo := 1; ; lineNo++ {
		line, readErr := br.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return fmt.Errorf("%w: read line %d: %w", util.ErrFileSystem, lineNo, readErr)
		}
		if readErr == io.EOF && line == "" {
			return nil
		}

		if strings.HasSuffix(line, "\n") {
			line = strings.TrimSuffix(line[:len(line)-1], "\r")
		}
		if !utf8.ValidString(line) {
			return fmt.Errorf("%w: line %d is not valid UTF-8", util.ErrDecode, lineNo)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		out, err := p.lines.ProcessLine(ctx, line)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		p.metrics.LineProcessed()

		if _, err := bw.WriteString(out); err != nil {
			return fmt.Errorf("%w: line %d: %w", util.ErrWrite, lineNo, err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("%w: line %d: %w", util.ErrWrite, lineNo, err)
		}
		if err := bw.Flush(); err != nil {
			return fmt.Errorf("%w: line %d: %w", util.ErrWrite, lineNo, err)
		}

		if readErr == io.EOF {
			return nil
		}
	}
}

// ProcessFile processes inPath into outPath, creating or truncating
// outPath. A failure leaves a partial outPath behind.
func (p *StreamProcessor) ProcessFile(ctx context.Context, inPath, outPath string) (err error) {
	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", util.ErrFileSystem, inPath, err)
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", util.ErrFileSystem, outPath, err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("%w: close %s: %w", util.ErrWrite, outPath, cerr)
		}
	}()

	return p.Process(ctx, in, out)
}

// ProcessFileInPlace processes path into a uniquely named sibling temp file
// and renames it over path. On failure path is untouched and the temp file
// is removed.
func (p *StreamProcessor) ProcessFileInPlace(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: stat %s: %w", util.ErrFileSystem, path, err)
	}

	tmp := fmt.Sprintf("%s.%s.tmp", path, uuid.NewString())
	if err := p.ProcessFile(ctx, path, tmp); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, info.Mode().Perm()); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: chmod %s: %w", util.ErrFileSystem, tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: rename %s: %w", util.ErrFileSystem, tmp, err)
	}
	return nil
}
