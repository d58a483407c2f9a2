// SPDX-License-Identifier: Apache-2.0

package segment

import (
	"errors"
	"fmt"
)

var (
	// ErrDecode marks images that could not be opened or decoded.
	ErrDecode = errors.New("image decode failed")
	// ErrModel marks failures inside the segmentation model.
	ErrModel = errors.New("segmentation model failed")
)

// SegmentationError carries the path and the class (ErrDecode or ErrModel)
// of a failed segmentation.
type SegmentationError struct {
	Path  string
	Kind  error
	Cause error
}

func (e *SegmentationError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Path, e.Kind, e.Cause)
}

func (e *SegmentationError) Unwrap() []error { return []error{e.Kind, e.Cause} }
