// Package compiler turns a fixed-column seismicity catalog into an ordered
// catalog of area and fault sources.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mr1hm/go-seismic-sources/internal/catalog"
	"github.com/mr1hm/go-seismic-sources/internal/geometry"
	"github.com/mr1hm/go-seismic-sources/internal/metrics"
	"github.com/mr1hm/go-seismic-sources/internal/mfd"
	"github.com/mr1hm/go-seismic-sources/internal/models"
	"github.com/mr1hm/go-seismic-sources/internal/worker"
)

// minDistinctMagnitudes is the fewest magnitudes a distribution can be
// built from.
const minDistinctMagnitudes = 2

type Options struct {
	LabelPrefix  string
	MinMagnitude float64 // sources must exceed this maximum magnitude
	BinWidth     float64
	Strategy     string // "gr" or "empirical"
	Workers      int    // >1 flushes sources concurrently
	FailFast     bool   // abort the run on the first failed source
	// LabelRecordsCarryData treats the fields of a label record as
	// observations of the source it opens.
	LabelRecordsCarryData bool
}

func DefaultOptions() Options {
	return Options{
		LabelPrefix:  catalog.DefaultLabelPrefix,
		MinMagnitude: 5.0,
		BinWidth:     mfd.DefaultBinWidth,
		Strategy:     mfd.StrategyGutenbergRichter,
		Workers:      1,
	}
}

type Compiler struct {
	opts    Options
	matcher *catalog.LabelMatcher
	synth   mfd.Synthesizer
	geom    geometry.Compiler
}

func New(opts Options) (*Compiler, error) {
	if opts.BinWidth <= 0 {
		return nil, fmt.Errorf("bin width must be positive: %g", opts.BinWidth)
	}
	matcher, err := catalog.NewLabelMatcher(opts.LabelPrefix)
	if err != nil {
		return nil, err
	}
	synth, err := mfd.NewSynthesizer(opts.Strategy)
	if err != nil {
		return nil, err
	}
	return &Compiler{
		opts:    opts,
		matcher: matcher,
		synth:   synth,
		geom:    geometry.Compiler{MinMagnitude: opts.MinMagnitude},
	}, nil
}

func (c *Compiler) Strategy() string { return c.synth.Name() }

// Result is everything one compile run produced.
type Result struct {
	Catalog  *models.Catalog
	Outcomes []Outcome // one per source block, input order
	Records  int
	Orphaned bool // input ended with an unpaired line
}

// Count returns the number of outcomes in status s.
func (r *Result) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Compile reads the whole catalog. Per-source failures are reported in
// Result.Outcomes; only read errors, cancellation, unknown source codes
// and, with FailFast, a failed source abort the run.
func (c *Compiler) Compile(ctx context.Context, r io.Reader) (*Result, error) {
	start := time.Now()
	defer func() { metrics.CompileDuration.Observe(time.Since(start).Seconds()) }()

	flush := c.sequentialFlush()
	if c.opts.Workers > 1 {
		flush = c.concurrentFlush(ctx)
	}

	res := &Result{Catalog: models.NewCatalog()}
	sc := catalog.NewScanner(r)
	acc := NewAccumulator(c.matcher, c.opts.LabelRecordsCarryData)

	var runErr error
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		res.Records++
		metrics.RecordsScanned.Inc()

		done, err := acc.Feed(sc.Record())
		if err != nil {
			runErr = err
			break
		}
		if done != nil {
			if err := flush.submit(ctx, done); err != nil {
				runErr = err
				break
			}
		}
	}
	if runErr == nil {
		runErr = sc.Err()
	}
	if runErr == nil {
		if last := acc.Finish(); last != nil {
			runErr = flush.submit(ctx, last)
		}
	}

	res.Outcomes = flush.wait()
	res.Orphaned = sc.Orphaned()
	if runErr == nil {
		// a pool cancelled after the last Submit may have skipped queued blocks
		runErr = ctx.Err()
	}
	if runErr != nil {
		return nil, runErr
	}
	if res.Orphaned {
		slog.Warn("catalog ends with an unpaired line; ignored")
	}

	for _, o := range res.Outcomes {
		metrics.SourcesProcessed.WithLabelValues(o.Label.Kind.String(), o.Status.String()).Inc()
		if o.Status == StatusFailed && c.opts.FailFast {
			return nil, fmt.Errorf("source %s (line %d): %w", o.Label.ID, o.Line, o.Err)
		}
		if o.Status == StatusCompiled {
			res.Catalog.Append(o.Source)
		}
	}

	slog.Info("catalog compiled",
		"records", res.Records,
		"blocks", len(res.Outcomes),
		"compiled", res.Count(StatusCompiled),
		"dropped", res.Count(StatusDropped),
		"failed", res.Count(StatusFailed),
		"strategy", c.synth.Name())
	return res, nil
}

// Flush runs one source block through binning, synthesis and geometry.
// It never mutates the set.
func (c *Compiler) Flush(set *ObservationSet) Outcome {
	o := Outcome{Seq: set.Seq, Label: set.Label, Line: set.Line}

	maxMag, ok := set.MaxMagnitude()
	switch {
	case !ok || set.NumMagnitudes() < minDistinctMagnitudes:
		o.Reason = fmt.Sprintf("%d distinct magnitudes, need %d", set.NumMagnitudes(), minDistinctMagnitudes)
	case maxMag <= c.opts.MinMagnitude:
		o.Reason = fmt.Sprintf("max magnitude %.2f not above %.2f", maxMag, c.opts.MinMagnitude)
	}
	if o.Reason != "" {
		o.Status = StatusDropped
		slog.Info("source dropped", "label", o.Label.ID, "kind", o.Label.Kind, "reason", o.Reason)
		return o
	}

	mags, rates := set.Pairs()
	mfd.SortPairs(mags, rates)

	grid, err := mfd.DeriveGrid(mags, c.opts.BinWidth)
	if err != nil {
		return c.failed(o, err)
	}
	o.Grid = grid

	dist, cov, err := c.synth.Synthesize(grid, mags, rates)
	o.Coverage = cov
	if err != nil {
		return c.failed(o, err)
	}
	metrics.MFDBins.Observe(float64(grid.Count))

	slog.Debug("magnitude grid",
		"label", o.Label.ID,
		"mmin", grid.Min,
		"mmax", grid.Max,
		"width", grid.ObservedWidth,
		"bins", grid.Count,
		"coverage", cov)

	var src models.Source
	switch set.Label.Kind {
	case models.KindArea:
		src, err = c.geom.Area(set.Label, set.Geometry, dist)
	case models.KindFault:
		src, err = c.geom.Fault(set.Label, set.Geometry, dist)
	default:
		err = &ConfigurationError{Code: set.Label.Code, Line: set.Line}
	}
	if err != nil {
		return c.failed(o, err)
	}

	o.Status = StatusCompiled
	o.Source = src
	slog.Info("source compiled", "label", o.Label.ID, "kind", o.Label.Kind, "bins", grid.Count)
	return o
}

func (c *Compiler) failed(o Outcome, err error) Outcome {
	o.Status = StatusFailed
	o.Err = err

	var se *mfd.SynthesisError
	if errors.As(err, &se) {
		slog.Warn("source synthesis failed", "label", o.Label.ID, "strategy", se.Strategy, "error", err)
	} else {
		slog.Warn("source failed", "label", o.Label.ID, "error", err)
	}
	return o
}

// flusher hides whether source blocks are flushed inline or on the pool.
type flusher struct {
	submit func(ctx context.Context, set *ObservationSet) error
	wait   func() []Outcome
}

func (c *Compiler) sequentialFlush() flusher {
	var out []Outcome
	return flusher{
		submit: func(_ context.Context, set *ObservationSet) error {
			out = append(out, c.Flush(set))
			return nil
		},
		wait: func() []Outcome { return out },
	}
}

func (c *Compiler) concurrentFlush(ctx context.Context) flusher {
	pool := worker.NewWorkerPool(c.opts.Workers, c.opts.Workers*2, func(_ context.Context, set *ObservationSet) Outcome {
		return c.Flush(set)
	})
	pool.Start(ctx)
	return flusher{
		submit: pool.Submit,
		wait:   pool.Stop,
	}
}
