// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/histoprep/cellcount/internal/config"
	"github.com/histoprep/cellcount/internal/dataset"
	"github.com/histoprep/cellcount/internal/segment"
	"github.com/histoprep/cellcount/internal/segment/models"
)

// Process runs the whole preparation described by cfg with the model
// backend it names.
func Process(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	model, err := models.New(cfg.Model.Name, cfg.Model.Options(), logger)
	if err != nil {
		return nil, err
	}
	return ProcessWith(ctx, cfg, model, logger)
}

// ProcessWith is Process with an explicit model. A missing dataset root or
// metadata file fails before any patch is read.
func ProcessWith(ctx context.Context, cfg config.Config, model segment.Model, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	ds, err := dataset.Open(cfg.DatasetRoot, cfg.MetadataPath)
	if err != nil {
		return nil, err
	}
	logger.Info("found patches",
		zap.Int("count", len(ds.Files)),
		zap.String("root", ds.Root),
		zap.Int("metadata_rows", ds.Metadata.Nrow()),
	)

	adapter := segment.NewAdapter(model, cfg.Model.Params(), logger)
	p := NewPipeline(adapter, WithWorkers(cfg.Workers), WithLogger(logger))
	res, err := p.Run(ctx, ds.Files)
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}

	if cfg.JoinMetadata {
		if !ds.Metadata.Indexed() {
			logger.Warn("metadata has no patient, node, x_coord and y_coord columns; not joining")
		}
		t := JoinMetadata(res.Table(), ds.Metadata)
		res.table = &t
	}
	return res, nil
}
