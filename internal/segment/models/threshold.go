// SPDX-License-Identifier: Apache-2.0

package models

import (
	"context"
	"image"
	"math"

	"go.uber.org/zap"

	"github.com/histoprep/cellcount/internal/segment"
)

const thresholdName = "threshold"

func init() {
	Register(thresholdName, NewThreshold)
}

// Threshold is an in-process classical segmenter: a global Otsu threshold
// followed by 8-connected component labelling. It needs no external tools
// and ignores the GPU and channel settings.
type Threshold struct {
	minArea          int
	brightForeground bool
	logger           *zap.Logger
}

func NewThreshold(opts Options, logger *zap.Logger) (segment.Model, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Threshold{minArea: opts.MinArea, brightForeground: opts.BrightForeground, logger: logger}, nil
}

func (t *Threshold) Name() string { return thresholdName }

func (t *Threshold) Eval(ctx context.Context, img *image.Gray, params segment.Params) (segment.LabelMask, error) {
	if err := ctx.Err(); err != nil {
		return segment.LabelMask{}, err
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	level, ok := otsuLevel(img)
	if !ok {
		// Flat image, nothing to separate.
		return segment.NewLabelMask(w, h), nil
	}

	fg := make([]bool, w*h)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			v := row[x]
			if t.brightForeground {
				fg[y*w+x] = v > level
			} else {
				fg[y*w+x] = v <= level
			}
		}
	}

	minArea := t.minArea
	if minArea == 0 {
		minArea = MinAreaForDiameter(params.Diameter)
	}
	mask := labelComponents(fg, w, h, minArea)
	t.logger.Debug("thresholded patch", zap.Uint8("level", level), zap.Int("objects", mask.Count()))
	return mask, nil
}

// MinAreaForDiameter is a quarter of the area of a disc of diameter d,
// rounded, and at least one pixel.
func MinAreaForDiameter(d float64) int {
	r := d / 2
	area := int(math.Round(math.Pi * r * r / 4))
	if area < 1 {
		return 1
	}
	return area
}

// otsuLevel returns the threshold maximising between-class variance, and
// false when the histogram has a single occupied bin.
func otsuLevel(img *image.Gray) (uint8, bool) {
	var hist [256]int
	b := img.Bounds()
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < b.Dx(); x++ {
			hist[row[x]]++
		}
	}
	total := float64(b.Dx() * b.Dy())

	var sum float64
	for i, n := range hist {
		sum += float64(i * n)
	}

	var sumB, wB, best float64
	level := 0
	for t := 0; t < 256; t++ {
		wB += float64(hist[t])
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t * hist[t])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			level = t
		}
	}
	return uint8(level), best > 0
}

// labelComponents assigns consecutive labels to 8-connected foreground
// regions of at least minArea pixels.
func labelComponents(fg []bool, w, h, minArea int) segment.LabelMask {
	mask := segment.NewLabelMask(w, h)
	visited := make([]bool, len(fg))
	var next uint32
	var stack, region []int

	for start := range fg {
		if !fg[start] || visited[start] {
			continue
		}
		region = region[:0]
		stack = append(stack[:0], start)
		visited[start] = true
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			region = append(region, i)
			x, y := i%w, i/w
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					j := ny*w + nx
					if fg[j] && !visited[j] {
						visited[j] = true
						stack = append(stack, j)
					}
				}
			}
		}
		if len(region) < minArea {
			continue
		}
		next++
		for _, i := range region {
			mask.Labels[i] = next
		}
	}
	return mask
}
