// SPDX-License-Identifier: Apache-2.0

package segment

import (
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// LoadImage opens and decodes an image file of any registered format.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return img, nil
}

// ToGray returns a single-channel view of img. Images that already have one
// channel are copied as-is; colour images go through a BT.601 luminance
// conversion.
func ToGray(img image.Image) *image.Gray {
	b := img.Bounds()
	switch src := img.(type) {
	case *image.Gray:
		if b.Min == (image.Point{}) {
			return src
		}
	case *image.Gray16:
		gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				gray.SetGray(x, y, color.GrayModel.Convert(src.Gray16At(b.Min.X+x, b.Min.Y+y)).(color.Gray))
			}
		}
		return gray
	}

	lum := imaging.Grayscale(img)
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := lum.Pix[y*lum.Stride:]
		dst := gray.Pix[y*gray.Stride:]
		for x := 0; x < b.Dx(); x++ {
			// R, G and B are equal after Grayscale.
			dst[x] = src[4*x]
		}
	}
	return gray
}
