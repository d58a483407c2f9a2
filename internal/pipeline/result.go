// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"io"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/histoprep/cellcount/internal/dataset"
	"github.com/histoprep/cellcount/internal/patch"
)

// Result is the output of one run.
type Result struct {
	RunID   string
	Records []patch.Record
	Failed  []ItemError

	table *ResultTable
}

// Err combines the per-patch failures, or returns nil when there were none.
func (r *Result) Err() error {
	var err error
	for i := range r.Failed {
		err = multierr.Append(err, &r.Failed[i])
	}
	return err
}

// Table returns the records as a ResultTable. After Process with
// join_metadata enabled the table carries the metadata columns.
func (r *Result) Table() ResultTable {
	if r.table != nil {
		return *r.table
	}
	return NewResultTable(r.Records)
}

// Summary summarizes the records and counts the failures.
func (r *Result) Summary() Summary {
	s := Summarize(r.Records)
	s.Failed = len(r.Failed)
	return s
}

// ResultTable is an ordered set of records, optionally extended by metadata
// columns.
type ResultTable struct {
	records []patch.Record
	extra   []string
	rows    []map[string]string
}

func NewResultTable(records []patch.Record) ResultTable {
	return ResultTable{records: records}
}

func (t ResultTable) Len() int { return len(t.records) }

func (t ResultTable) Records() []patch.Record { return t.records }

// Columns returns the column names in output order.
func (t ResultTable) Columns() []string {
	return append(append([]string{}, patch.Columns...), t.extra...)
}

// DataFrame converts the table to a typed gota DataFrame. Metadata columns
// are strings; patches without a metadata row get empty cells.
func (t ResultTable) DataFrame() dataframe.DataFrame {
	return t.frame(false)
}

// WriteCSV writes a header and one line per record. Densities are written
// with full precision.
func (t ResultTable) WriteCSV(w io.Writer) error {
	return t.frame(true).WriteCSV(w)
}

func (t ResultTable) frame(exactFloats bool) dataframe.DataFrame {
	n := len(t.records)
	patients := make([]string, n)
	nodes := make([]string, n)
	xs := make([]int, n)
	ys := make([]int, n)
	paths := make([]string, n)
	cells := make([]int, n)
	densities := make([]float64, n)
	for i, r := range t.records {
		patients[i] = r.PatientID
		nodes[i] = r.Node
		xs[i] = r.X
		ys[i] = r.Y
		paths[i] = r.Filepath
		cells[i] = r.NumCells
		densities[i] = r.CellDensity
	}

	density := series.New(densities, series.Float, "cell_density")
	if exactFloats {
		// gota prints floats with %f, which rounds typical densities to zero.
		density = series.New(lo.Map(densities, func(d float64, _ int) string {
			return strconv.FormatFloat(d, 'g', -1, 64)
		}), series.String, "cell_density")
	}

	cols := []series.Series{
		series.New(patients, series.String, "patient_id"),
		series.New(nodes, series.String, "node"),
		series.New(xs, series.Int, "x"),
		series.New(ys, series.Int, "y"),
		series.New(paths, series.String, "filepath"),
		series.New(cells, series.Int, "num_cells"),
		density,
	}
	for _, name := range t.extra {
		vals := make([]string, n)
		for i := range t.records {
			vals[i] = t.rows[i][name]
		}
		cols = append(cols, series.New(vals, series.String, name))
	}
	return dataframe.New(cols...)
}

// JoinMetadata left-joins the metadata columns onto t, matching patient,
// node, x_coord and y_coord. Key columns are not repeated and names that
// collide with result columns get a "metadata_" prefix. A table without key
// columns leaves t unchanged.
func JoinMetadata(t ResultTable, md dataset.MetadataTable) ResultTable {
	if !md.Indexed() {
		return t
	}

	rename := map[string]string{}
	var extra []string
	for _, name := range md.Names() {
		if lo.Contains(dataset.KeyColumns, name) {
			continue
		}
		out := name
		if lo.Contains(patch.Columns, name) {
			out = "metadata_" + name
		}
		rename[name] = out
		extra = append(extra, out)
	}

	rows := make([]map[string]string, len(t.records))
	for i, r := range t.records {
		rows[i] = map[string]string{}
		row, ok := md.Lookup(r.Key())
		if !ok {
			continue
		}
		for from, to := range rename {
			rows[i][to] = row[from]
		}
	}
	return ResultTable{records: t.records, extra: extra, rows: rows}
}
