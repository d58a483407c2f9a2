// SPDX-License-Identifier: Apache-2.0

package segment

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Adapter runs a Model over patch images and reduces the masks to Stats.
type Adapter struct {
	model  Model
	params Params
	logger *zap.Logger
}

// NewAdapter creates an Adapter. A nil logger discards diagnostics.
func NewAdapter(model Model, params Params, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{model: model, params: params, logger: logger}
}

func (a *Adapter) ModelName() string { return a.model.Name() }

// Segment decodes the image at path, runs the model and counts the labelled
// objects. Any failure is returned as a *SegmentationError classified as
// ErrDecode or ErrModel.
func (a *Adapter) Segment(ctx context.Context, path string) (Stats, error) {
	img, err := LoadImage(path)
	if err != nil {
		return Stats{}, &SegmentationError{Path: path, Kind: ErrDecode, Cause: err}
	}

	gray := ToGray(img)
	width, height := gray.Bounds().Dx(), gray.Bounds().Dy()

	mask, err := a.model.Eval(ctx, gray, a.params)
	if err != nil {
		return Stats{}, &SegmentationError{Path: path, Kind: ErrModel, Cause: err}
	}
	if err := mask.Validate(width, height); err != nil {
		return Stats{}, &SegmentationError{Path: path, Kind: ErrModel, Cause: err}
	}

	return NewStats(mask.Count(), width, height), nil
}

// Stats is the lenient form of Segment used by the dataset run: decode and
// model failures are logged and reported as zero cells so that one bad patch
// still produces a row. Cancellation of ctx is returned as an error.
func (a *Adapter) Stats(ctx context.Context, path string) (Stats, error) {
	stats, err := a.Segment(ctx, path)
	if err == nil {
		return stats, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Stats{}, ctxErr
	}

	var segErr *SegmentationError
	if !errors.As(err, &segErr) {
		return Stats{}, err
	}
	a.logger.Warn("segmentation failed, recording zero cells",
		zap.String("path", path),
		zap.String("model", a.model.Name()),
		zap.Error(err),
	)
	return Stats{}, nil
}
