// SPDX-License-Identifier: Apache-2.0

package segment

import (
	"fmt"
	"image"
	"image/color"
)

// LabelMask is a row-major label image.
type LabelMask struct {
	Width  int
	Height int
	Labels []uint32
}

// NewLabelMask allocates an all-background mask.
func NewLabelMask(width, height int) LabelMask {
	return LabelMask{Width: width, Height: height, Labels: make([]uint32, width*height)}
}

func (m LabelMask) At(x, y int) uint32 { return m.Labels[y*m.Width+x] }

func (m LabelMask) Set(x, y int, label uint32) { m.Labels[y*m.Width+x] = label }

// Count returns the number of distinct non-zero labels.
func (m LabelMask) Count() int {
	seen := make(map[uint32]struct{})
	for _, l := range m.Labels {
		if l != 0 {
			seen[l] = struct{}{}
		}
	}
	return len(seen)
}

// Validate checks that the mask is well formed and covers a width x height
// image.
func (m LabelMask) Validate(width, height int) error {
	if m.Width*m.Height != len(m.Labels) {
		return fmt.Errorf("mask is %dx%d but holds %d labels", m.Width, m.Height, len(m.Labels))
	}
	if m.Width != width || m.Height != height {
		return fmt.Errorf("mask is %dx%d, image is %dx%d", m.Width, m.Height, width, height)
	}
	return nil
}

// MaskFromImage reads a label mask written as an 8 or 16 bit grayscale
// image, the format segmentation tools save masks in.
func MaskFromImage(img image.Image) LabelMask {
	b := img.Bounds()
	m := NewLabelMask(b.Dx(), b.Dy())
	switch src := img.(type) {
	case *image.Gray16:
		for y := 0; y < m.Height; y++ {
			row := src.Pix[y*src.Stride:]
			for x := 0; x < m.Width; x++ {
				m.Labels[y*m.Width+x] = uint32(row[2*x])<<8 | uint32(row[2*x+1])
			}
		}
	case *image.Gray:
		for y := 0; y < m.Height; y++ {
			row := src.Pix[y*src.Stride:]
			for x := 0; x < m.Width; x++ {
				m.Labels[y*m.Width+x] = uint32(row[x])
			}
		}
	default:
		for y := 0; y < m.Height; y++ {
			for x := 0; x < m.Width; x++ {
				g := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
				m.Labels[y*m.Width+x] = uint32(g.Y)
			}
		}
	}
	return m
}
