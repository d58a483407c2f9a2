// SPDX-License-Identifier: Apache-2.0

// Package segment turns a patch image into cell statistics by running a
// pretrained segmentation model and reducing its label mask.
package segment

import (
	"context"
	"image"
)

// Params configures a single model evaluation.
type Params struct {
	// ModelType names the pretrained weights, e.g. "cyto".
	ModelType string
	// Diameter is the expected object diameter in pixels.
	Diameter float64
	GPU      bool
	// Channels maps the single grayscale input onto the model's two
	// input channels; {0, 0} means "grayscale for both".
	Channels [2]int
}

// DefaultParams matches the Camelyon17 preparation run: cytoplasm model,
// 8px cells, CPU only, grayscale mapped to both channels.
func DefaultParams() Params {
	return Params{
		ModelType: "cyto",
		Diameter:  8,
		GPU:       false,
		Channels:  [2]int{0, 0},
	}
}

// Model is a pretrained segmentation model. Eval returns a label mask the
// same size as img where 0 is background and each object has its own
// positive label.
type Model interface {
	Name() string
	Eval(ctx context.Context, img *image.Gray, params Params) (LabelMask, error)
}

// Stats is the reduction of one label mask.
type Stats struct {
	NumCells    int     `json:"num_cells"`
	CellDensity float64 `json:"cell_density"`
}

// NewStats derives density from a cell count and the image area.
func NewStats(numCells, width, height int) Stats {
	area := width * height
	if area <= 0 {
		return Stats{NumCells: numCells}
	}
	return Stats{
		NumCells:    numCells,
		CellDensity: float64(numCells) / float64(area),
	}
}
