// SPDX-License-Identifier: Apache-2.0

// Package pipeline merges filename metadata with cell statistics for every
// patch of a dataset and collects the rows into a result table.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/histoprep/cellcount/internal/patch"
	"github.com/histoprep/cellcount/internal/segment"
)

// Segmenter computes the cell statistics of one patch image. An error
// fails only that patch; *segment.Adapter satisfies it.
type Segmenter interface {
	Stats(ctx context.Context, path string) (segment.Stats, error)
}

type Pipeline struct {
	segmenter Segmenter
	workers   int
	logger    *zap.Logger
}

type Option func(*Pipeline)

// WithWorkers bounds the number of patches processed at once. Values below
// one mean one.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n < 1 {
			n = 1
		}
		p.workers = n
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPipeline creates a sequential Pipeline around s.
func NewPipeline(s Segmenter, opts ...Option) *Pipeline {
	p := &Pipeline{segmenter: s, workers: 1, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) Workers() int { return p.workers }

// ItemError records a patch that produced no row.
type ItemError struct {
	Path string
	Err  error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

// Run processes files and returns one record per patch that could be parsed
// and measured, in the order of files. A failing patch is logged and listed
// in Result.Failed. Run itself only fails when ctx is done.
func (p *Pipeline) Run(ctx context.Context, files []string) (*Result, error) {
	runID := uuid.NewString()
	logger := p.logger.With(zap.String("run_id", runID))

	slots := make([]*patch.Record, len(files))
	failures := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, path := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			rec, err := p.process(gctx, path)
			if err == nil {
				slots[i] = &rec
				return nil
			}
			if ctxErr := gctx.Err(); ctxErr != nil {
				return ctxErr
			}
			logger.Error("failed to process patch", zap.String("path", path), zap.Error(err))
			failures[i] = err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{RunID: runID, Records: make([]patch.Record, 0, len(files))}
	for i, rec := range slots {
		switch {
		case rec != nil:
			res.Records = append(res.Records, *rec)
		case failures[i] != nil:
			res.Failed = append(res.Failed, ItemError{Path: files[i], Err: failures[i]})
		}
	}
	logger.Debug("run finished",
		zap.Int("records", len(res.Records)),
		zap.Int("failed", len(res.Failed)),
	)
	return res, nil
}

func (p *Pipeline) process(ctx context.Context, path string) (patch.Record, error) {
	fields, err := patch.ParseFilename(path)
	if err != nil {
		return patch.Record{}, err
	}
	stats, err := p.segmenter.Stats(ctx, path)
	if err != nil {
		return patch.Record{}, fmt.Errorf("segment: %w", err)
	}
	return patch.NewRecord(fields, stats.NumCells, stats.CellDensity), nil
}
