// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"fmt"
	"io/fs"
)

// PathNotFoundError reports a required input path that does not exist.
type PathNotFoundError struct {
	Path string
	// Role names what the path was expected to be, e.g. "dataset root".
	Role string
}

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Role, e.Path)
}

func (e *PathNotFoundError) Is(target error) bool { return target == fs.ErrNotExist }
