// SPDX-License-Identifier: Apache-2.0

//go:build gocv

package models

import (
	"context"
	"image"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/histoprep/cellcount/internal/segment"
)

const opencvName = "opencv"

func init() {
	Register(opencvName, NewOpenCV)
}

// OpenCV is the Threshold pipeline on top of OpenCV. It is only built with
// the gocv tag since it needs the OpenCV shared libraries.
type OpenCV struct {
	minArea          int
	brightForeground bool
	logger           *zap.Logger
}

func NewOpenCV(opts Options, logger *zap.Logger) (segment.Model, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenCV{minArea: opts.MinArea, brightForeground: opts.BrightForeground, logger: logger}, nil
}

func (o *OpenCV) Name() string { return opencvName }

func (o *OpenCV) Eval(ctx context.Context, img *image.Gray, params segment.Params) (segment.LabelMask, error) {
	if err := ctx.Err(); err != nil {
		return segment.LabelMask{}, err
	}
	src, err := gocv.ImageGrayToMatGray(img)
	if err != nil {
		return segment.LabelMask{}, errors.Wrap(err, "convert patch to mat")
	}
	defer src.Close()

	binary := gocv.NewMat()
	defer binary.Close()
	mode := gocv.ThresholdBinaryInv
	if o.brightForeground {
		mode = gocv.ThresholdBinary
	}
	gocv.Threshold(src, &binary, 0, 255, mode|gocv.ThresholdOtsu)

	labels := gocv.NewMat()
	defer labels.Close()
	stats := gocv.NewMat()
	defer stats.Close()
	centroids := gocv.NewMat()
	defer centroids.Close()
	n := gocv.ConnectedComponentsWithStats(binary, &labels, &stats, &centroids)

	minArea := o.minArea
	if minArea == 0 {
		minArea = MinAreaForDiameter(params.Diameter)
	}

	// Label 0 is background; renumber the survivors consecutively.
	keep := make([]uint32, n)
	var next uint32
	for l := 1; l < n; l++ {
		if int(stats.GetIntAt(l, int(gocv.CC_STAT_AREA))) >= minArea {
			next++
			keep[l] = next
		}
	}

	b := img.Bounds()
	mask := segment.NewLabelMask(b.Dx(), b.Dy())
	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			mask.Set(x, y, keep[labels.GetIntAt(y, x)])
		}
	}
	o.logger.Debug("thresholded patch", zap.Int("components", n-1), zap.Uint32("objects", next))
	return mask, nil
}
