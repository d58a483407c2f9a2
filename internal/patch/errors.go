// SPDX-License-Identifier: Apache-2.0

package patch

import "fmt"

// MalformedFilenameError reports a patch name that does not follow the
// patch_patient_<id>_node_<n>_x_<x>_y_<y> convention.
type MalformedFilenameError struct {
	Name   string
	Reason string
	Err    error
}

func (e *MalformedFilenameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed patch filename %q: %s: %v", e.Name, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed patch filename %q: %s", e.Name, e.Reason)
}

func (e *MalformedFilenameError) Unwrap() error { return e.Err }
