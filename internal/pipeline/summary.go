// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"

	"github.com/histoprep/cellcount/internal/patch"
)

// Summary describes the distribution of cell counts over a run.
type Summary struct {
	Patches       int             `json:"patches"`
	Failed        int             `json:"failed"`
	TotalCells    int             `json:"total_cells"`
	MeanDensity   float64         `json:"mean_density"`
	StdDevDensity float64         `json:"stddev_density"`
	MedianDensity float64         `json:"median_density"`
	PerPatient    []PatientCounts `json:"per_patient"`
}

type PatientCounts struct {
	PatientID string `json:"patient_id"`
	Patches   int    `json:"patches"`
	Cells     int    `json:"cells"`
}

// Summarize computes totals and density statistics. The median is the
// empirical one (the lower middle value for an even count). With fewer than
// two records the standard deviation is zero.
func Summarize(records []patch.Record) Summary {
	s := Summary{Patches: len(records), PerPatient: []PatientCounts{}}
	if len(records) == 0 {
		return s
	}

	densities := make([]float64, len(records))
	for i, r := range records {
		densities[i] = r.CellDensity
		s.TotalCells += r.NumCells
	}

	s.MeanDensity = stat.Mean(densities, nil)
	if len(densities) > 1 {
		s.StdDevDensity = stat.StdDev(densities, nil)
	}
	slices.Sort(densities)
	s.MedianDensity = stat.Quantile(0.5, stat.Empirical, densities, nil)

	byPatient := lo.GroupBy(records, func(r patch.Record) string { return r.PatientID })
	ids := lo.Keys(byPatient)
	slices.Sort(ids)
	for _, id := range ids {
		rs := byPatient[id]
		s.PerPatient = append(s.PerPatient, PatientCounts{
			PatientID: id,
			Patches:   len(rs),
			Cells:     lo.SumBy(rs, func(r patch.Record) int { return r.NumCells }),
		})
	}
	return s
}

// Render formats s as two text tables, totals first.
func (s Summary) Render() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Patches", "Failed", "Cells", "Mean density", "Std density", "Median density"})
	t.AppendRow(table.Row{
		s.Patches,
		s.Failed,
		s.TotalCells,
		formatDensity(s.MeanDensity),
		formatDensity(s.StdDevDensity),
		formatDensity(s.MedianDensity),
	})
	out := t.Render()

	if len(s.PerPatient) == 0 {
		return out
	}
	p := table.NewWriter()
	p.AppendHeader(table.Row{"Patient", "Patches", "Cells"})
	for _, c := range s.PerPatient {
		p.AppendRow(table.Row{c.PatientID, c.Patches, c.Cells})
	}
	return fmt.Sprintf("%s\n%s", out, p.Render())
}

func formatDensity(d float64) string {
	return strconv.FormatFloat(d, 'e', 3, 64)
}
