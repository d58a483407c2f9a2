// SPDX-License-Identifier: Apache-2.0

package patch

// Record is one row of the result table: the identity parsed from a patch
// filename merged with the cell statistics computed for its image.
type Record struct {
	PatientID   string  `json:"patient_id"`
	Node        string  `json:"node"`
	X           int     `json:"x"`
	Y           int     `json:"y"`
	Filepath    string  `json:"filepath"`
	NumCells    int     `json:"num_cells"`
	CellDensity float64 `json:"cell_density"`
}

// NewRecord merges parsed filename fields with segmentation output.
func NewRecord(f Fields, numCells int, cellDensity float64) Record {
	return Record{
		PatientID:   f.PatientID,
		Node:        f.Node,
		X:           f.X,
		Y:           f.Y,
		Filepath:    f.Filepath,
		NumCells:    numCells,
		CellDensity: cellDensity,
	}
}

func (r Record) Key() Key {
	return Key{PatientID: r.PatientID, Node: r.Node, X: r.X, Y: r.Y}
}

// Columns lists the result table columns in output order.
var Columns = []string{"patient_id", "node", "x", "y", "filepath", "num_cells", "cell_density"}
