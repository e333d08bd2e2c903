package linkcache

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/dendrascience/linkcache/internal/metrics"
	"github.com/dendrascience/linkcache/util"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DriverConfig selects the files of a run and where their output goes.
type DriverConfig struct {
	DataDir   string // root of the export tree
	Extension string // exact, case-sensitive input extension, e.g. ".json"
	Suffix    string // appended to an input path to name its output
	InPlace   bool   // replace inputs instead of writing siblings
	Jobs      int    // files processed concurrently, at least 1
}

// Summary describes a finished run.
type Summary struct {
	Files   int
	Elapsed time.Duration
}

// Driver runs a LineProcessor over every matching file of a data tree.
type Driver struct {
	cfg      DriverConfig
	proc     *StreamProcessor
	progress *Progress
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithProgress sets the per-file progress printer.
func WithProgress(p *Progress) DriverOption {
	return func(d *Driver) {
		d.progress = p
	}
}

// WithDriverLogger sets the logger. The default discards everything.
func WithDriverLogger(logger *zap.Logger) DriverOption {
	return func(d *Driver) {
		d.logger = logger
	}
}

// WithDriverMetrics sets the metrics sink.
func WithDriverMetrics(m *metrics.Metrics) DriverOption {
	return func(d *Driver) {
		d.metrics = m
	}
}

// NewDriver creates a Driver applying lp to each selected file.
func NewDriver(cfg DriverConfig, lp LineProcessor, opts ...DriverOption) *Driver {
	if cfg.Jobs < 1 {
		cfg.Jobs = 1
	}
	d := &Driver{
		cfg:    cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.proc = NewStreamProcessor(lp, WithStreamMetrics(d.metrics))
	return d
}

// Selects reports whether path is an input of this run.
func (d *Driver) Selects(path string) bool {
	return filepath.Ext(path) == d.cfg.Extension
}

// OutputPath returns where the rewritten content of input goes.
func (d *Driver) OutputPath(input string) string {
	if d.cfg.InPlace {
		return input
	}
	return input + d.cfg.Suffix
}

// Run processes every selected file. It stops at the first error of any
// kind, enumeration included, and returns it; with several jobs the
// remaining work is cancelled.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	w, err := util.NewWalker(d.cfg.DataDir)
	if err != nil {
		return Summary{}, err
	}

	var files atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Jobs)

	var walkErr error
	for path, err := range w.All() {
		if err != nil {
			walkErr = err
			break
		}
		if gctx.Err() != nil {
			break
		}
		if !d.Selects(path) {
			continue
		}
		g.Go(func() error {
			if err := d.processFile(gctx, path); err != nil {
				return err
			}
			files.Add(1)
			return nil
		})
	}

	err = g.Wait()
	summary := Summary{Files: int(files.Load()), Elapsed: time.Since(start)}
	if err != nil {
		return summary, err
	}
	if walkErr != nil {
		return summary, walkErr
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (d *Driver) processFile(ctx context.Context, path string) error {
	d.progress.File(path)
	start := time.Now()

	var err error
	if d.cfg.InPlace {
		err = d.proc.ProcessFileInPlace(ctx, path)
	} else {
		err = d.proc.ProcessFile(ctx, path, d.OutputPath(path))
	}
	if err != nil {
		d.logger.Error("file failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("process %s: %w", path, err)
	}

	d.metrics.FileProcessed()
	d.logger.Debug("file processed",
		zap.String("path", path),
		zap.String("output", d.OutputPath(path)),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}
