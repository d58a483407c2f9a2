// SPDX-License-Identifier: Apache-2.0

package patch

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Extension is the suffix every patch image carries.
const Extension = ".png"

// Segment positions inside an underscore-split patch name such as
// patch_patient_004_node_4_x_3328_y_21792. The remaining segments are
// labels and are not validated.
const (
	patientSegment = 2
	nodeSegment    = 4
	xSegment       = 6
	ySegment       = 8
	minSegments    = ySegment + 1
)

// Fields holds the identity of a patch as encoded in its filename.
type Fields struct {
	PatientID string
	Node      string
	X         int
	Y         int
	Filepath  string
}

// Key identifies a patch independently of where it lives on disk.
type Key struct {
	PatientID string
	Node      string
	X         int
	Y         int
}

func (f Fields) Key() Key {
	return Key{PatientID: f.PatientID, Node: f.Node, X: f.X, Y: f.Y}
}

// ParseFilename extracts the patch identity from path. Directory components
// and the .png suffix are stripped before the name is split on '_'.
func ParseFilename(path string) (Fields, error) {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, Extension)
	parts := strings.Split(stem, "_")
	if len(parts) < minSegments {
		return Fields{}, &MalformedFilenameError{
			Name:   base,
			Reason: fmt.Sprintf("expected at least %d underscore-separated segments, got %d", minSegments, len(parts)),
		}
	}

	x, err := strconv.Atoi(parts[xSegment])
	if err != nil {
		return Fields{}, &MalformedFilenameError{Name: base, Reason: "x coordinate is not an integer", Err: err}
	}
	y, err := strconv.Atoi(parts[ySegment])
	if err != nil {
		return Fields{}, &MalformedFilenameError{Name: base, Reason: "y coordinate is not an integer", Err: err}
	}

	return Fields{
		PatientID: parts[patientSegment],
		Node:      parts[nodeSegment],
		X:         x,
		Y:         y,
		Filepath:  path,
	}, nil
}
