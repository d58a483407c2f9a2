// SPDX-License-Identifier: Apache-2.0

package pipeline_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/histoprep/cellcount/internal/dataset"
	"github.com/histoprep/cellcount/internal/patch"
	"github.com/histoprep/cellcount/internal/pipeline"
)

func sampleRecords() []patch.Record {
	return []patch.Record{
		{PatientID: "004", Node: "4", X: 3328, Y: 21792, Filepath: "/d/a.png", NumCells: 4, CellDensity: 0.0016},
		{PatientID: "004", Node: "4", X: 3200, Y: 22720, Filepath: "/d/b.png", NumCells: 0, CellDensity: 0},
		{PatientID: "010", Node: "1", X: 1, Y: 2, Filepath: "/d/c.png", NumCells: 7, CellDensity: 7.0 / 9216},
	}
}

// ---------------------------------------------------------------------------
// ResultTable
// ---------------------------------------------------------------------------

func TestResultTable_DataFrame(t *testing.T) {
	df := pipeline.NewResultTable(sampleRecords()).DataFrame()
	require.NoError(t, df.Err)

	assert.Equal(t, patch.Columns, df.Names())
	assert.Equal(t, 3, df.Nrow())
	assert.Equal(t, []string{"004", "004", "010"}, df.Col("patient_id").Records())
	assert.Equal(t, 11.0, sumFloats(df.Col("num_cells").Float()))
	assert.InDelta(t, 0.0016, df.Col("cell_density").Float()[0], 1e-12)
}

func sumFloats(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

func TestResultTable_DataFrameEmpty(t *testing.T) {
	df := pipeline.NewResultTable(nil).DataFrame()
	require.NoError(t, df.Err)
	assert.Equal(t, 0, df.Nrow())
	assert.Equal(t, patch.Columns, df.Names())
}

func TestResultTable_WriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, pipeline.NewResultTable(sampleRecords()[:2]).WriteCSV(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "patient_id,node,x,y,filepath,num_cells,cell_density", lines[0])
	assert.Equal(t, "004,4,3328,21792,/d/a.png,4,0.0016", lines[1])
	assert.Equal(t, "004,4,3200,22720,/d/b.png,0,0", lines[2])
}

func TestResultTable_WriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, pipeline.NewResultTable(nil).WriteCSV(&buf))
	assert.Equal(t, "patient_id,node,x,y,filepath,num_cells,cell_density\n", buf.String())
}

// ---------------------------------------------------------------------------
// JoinMetadata
// ---------------------------------------------------------------------------

func loadMetadata(t *testing.T, content string) dataset.MetadataTable {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metadata.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	md, err := dataset.LoadMetadata(path)
	require.NoError(t, err)
	return md
}

func TestJoinMetadata(t *testing.T) {
	md := loadMetadata(t, `patient,node,x_coord,y_coord,tumor,filepath
004,4,3328,21792,1,slides/a.tif
4,4,3200,22720,0,slides/b.tif
`)

	joined := pipeline.JoinMetadata(pipeline.NewResultTable(sampleRecords()), md)
	assert.Equal(t, append(append([]string{}, patch.Columns...), "tumor", "metadata_filepath"), joined.Columns())
	assert.Equal(t, 3, joined.Len())

	df := joined.DataFrame()
	require.NoError(t, df.Err)
	assert.Equal(t, []string{"1", "0", ""}, df.Col("tumor").Records())
	assert.Equal(t, []string{"slides/a.tif", "slides/b.tif", ""}, df.Col("metadata_filepath").Records())
	assert.Equal(t, []string{"/d/a.png", "/d/b.png", "/d/c.png"}, df.Col("filepath").Records())
}

func TestJoinMetadata_NoKeyColumns(t *testing.T) {
	md := loadMetadata(t, "slide,center\n1,2\n")
	table := pipeline.NewResultTable(sampleRecords())

	joined := pipeline.JoinMetadata(table, md)
	assert.Equal(t, patch.Columns, joined.Columns())
}
