// SPDX-License-Identifier: Apache-2.0

package pipeline_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/histoprep/cellcount/internal/patch"
	"github.com/histoprep/cellcount/internal/pipeline"
)

func TestSummarize(t *testing.T) {
	records := []patch.Record{
		{PatientID: "010", NumCells: 3, CellDensity: 0.3},
		{PatientID: "004", NumCells: 1, CellDensity: 0.1},
		{PatientID: "004", NumCells: 2, CellDensity: 0.2},
	}

	s := pipeline.Summarize(records)
	assert.Equal(t, 3, s.Patches)
	assert.Equal(t, 6, s.TotalCells)
	assert.InDelta(t, 0.2, s.MeanDensity, 1e-12)
	assert.InDelta(t, 0.1, s.StdDevDensity, 1e-12)
	assert.InDelta(t, 0.2, s.MedianDensity, 1e-12)
	assert.Equal(t, []pipeline.PatientCounts{
		{PatientID: "004", Patches: 2, Cells: 3},
		{PatientID: "010", Patches: 1, Cells: 3},
	}, s.PerPatient)
}

func TestSummarize_Small(t *testing.T) {
	empty := pipeline.Summarize(nil)
	assert.Zero(t, empty.Patches)
	assert.False(t, math.IsNaN(empty.MeanDensity))
	assert.Empty(t, empty.PerPatient)

	one := pipeline.Summarize([]patch.Record{{PatientID: "004", NumCells: 5, CellDensity: 0.5}})
	assert.InDelta(t, 0.5, one.MeanDensity, 1e-12)
	assert.Zero(t, one.StdDevDensity)
	assert.InDelta(t, 0.5, one.MedianDensity, 1e-12)
}

func TestSummary_Render(t *testing.T) {
	s := pipeline.Summarize(sampleRecords())
	s.Failed = 2

	out := s.Render()
	assert.Contains(t, out, "PATCHES")
	assert.Contains(t, out, "010")
	assert.Contains(t, out, "7.595e-04")

	assert.NotContains(t, pipeline.Summarize(nil).Render(), "PATIENT")
}
