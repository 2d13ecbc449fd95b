package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ipsix/logagg/internal/logging"
	"github.com/ipsix/logagg/internal/scanner"
	"github.com/ipsix/logagg/internal/state"
)

// Scanner produces one file's contribution.
type Scanner interface {
	Scan(ctx context.Context, path string) (scanner.PartialResult, error)
}

// Recorder receives per-file and final observations, e.g. for metrics.
type Recorder interface {
	ObserveFile(p scanner.PartialResult, took time.Duration)
	ObserveSnapshot(snap state.Snapshot)
}

type Scheduler struct {
	logger      *logging.Logger
	scan        Scanner
	concurrency int
	recorder    Recorder
}

type Option func(*Scheduler)

// WithConcurrency caps the number of files scanned at once. Zero or a value
// above the number of inputs means one worker per file.
func WithConcurrency(n int) Option {
	return func(s *Scheduler) { s.concurrency = n }
}

func WithRecorder(r Recorder) Option {
	return func(s *Scheduler) { s.recorder = r }
}

func New(logger *logging.Logger, scan Scanner, opts ...Option) *Scheduler {
	s := &Scheduler{logger: logger, scan: scan}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type Outcome struct {
	Snapshot state.Snapshot
	// Failures are in input order.
	Failures []*scanner.FileError
	Duration time.Duration
}

// Run scans every path in its own worker, merging each result as soon as
// it is ready, and returns once all workers have contributed.
func (s *Scheduler) Run(ctx context.Context, paths []string) Outcome {
	started := time.Now()
	agg := state.NewAggregator()
	agg.Expect(len(paths))

	limit := s.concurrency
	if limit <= 0 || limit > len(paths) {
		limit = len(paths)
	}

	failures := make([]*scanner.FileError, len(paths))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			failures[i] = s.executeJob(ctx, agg, i, path)
			return nil
		})
	}

	snap := agg.Wait()
	_ = g.Wait()

	out := Outcome{Snapshot: snap, Duration: time.Since(started)}
	for _, ferr := range failures {
		if ferr != nil {
			out.Failures = append(out.Failures, ferr)
		}
	}
	if s.recorder != nil {
		s.recorder.ObserveSnapshot(snap)
	}

	s.logger.Info("batch completed",
		logging.Field{Key: "files", Value: len(paths)},
		logging.Field{Key: "failed", Value: len(out.Failures)},
		logging.Field{Key: "lines", Value: snap.TotalLines},
		logging.Field{Key: "duration", Value: out.Duration.String()},
	)
	return out
}

// executeJob always merges exactly once, even when the scan fails or panics,
// so the aggregate barrier cannot be left waiting.
func (s *Scheduler) executeJob(ctx context.Context, agg *state.Aggregator, index int, path string) (ferr *scanner.FileError) {
	started := time.Now()
	var result scanner.PartialResult

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scan panic recovered",
				logging.Field{Key: "path", Value: path},
				logging.Field{Key: "panic", Value: fmt.Sprint(r)},
				logging.Field{Key: "stack", Value: string(debug.Stack())},
			)
			ferr = &scanner.FileError{Path: path, Kind: scanner.KindReadError, Err: fmt.Errorf("panic: %v", r)}
			result = scanner.Failed(path, ferr)
		}
		result.Index = index
		took := time.Since(started)

		if err := agg.Merge(result); err != nil {
			s.logger.Error("merge failed",
				logging.Field{Key: "path", Value: path},
				logging.Field{Key: "error", Value: err.Error()},
			)
		}
		if s.recorder != nil {
			s.recorder.ObserveFile(result, took)
		}
		s.logCompletion(result, took)
	}()

	res, err := s.scan.Scan(ctx, path)
	result = res
	if err != nil {
		if !errors.As(err, &ferr) {
			ferr = &scanner.FileError{Path: path, Kind: scanner.KindReadError, Err: err}
		}
		result = scanner.Failed(path, ferr)
	}
	return ferr
}

func (s *Scheduler) logCompletion(p scanner.PartialResult, took time.Duration) {
	fields := []logging.Field{
		{Key: "path", Value: p.Path},
		{Key: "status", Value: state.StatusSuccess},
		{Key: "lines", Value: p.Lines},
		{Key: "retained", Value: len(p.Retained)},
		{Key: "duration", Value: took.String()},
	}
	if p.Err != nil {
		fields[1].Value = state.StatusFailed
		fields = append(fields,
			logging.Field{Key: "kind", Value: p.Err.Kind},
			logging.Field{Key: "error", Value: p.Err.Error()},
		)
	}
	s.logger.Info("scan completed", fields...)
}
