// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/samber/lo"

	"github.com/histoprep/cellcount/internal/patch"
)

// Column names of the patch identity in the Camelyon17 metadata.csv.
const (
	ColPatient = "patient"
	ColNode    = "node"
	ColX       = "x_coord"
	ColY       = "y_coord"
)

// KeyColumns are the metadata columns that identify a patch.
var KeyColumns = []string{ColPatient, ColNode, ColX, ColY}

// MetadataTable is the read-only experiment metadata loaded from CSV. All
// cells are kept as strings.
type MetadataTable struct {
	df    dataframe.DataFrame
	index map[patch.Key]map[string]string
}

// LoadMetadata reads a CSV file with a header row. A file holding only the
// header yields an empty table.
func LoadMetadata(path string) (MetadataTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return MetadataTable{}, fmt.Errorf("open metadata: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return MetadataTable{}, fmt.Errorf("parse metadata %s: %w", path, err)
	}
	if len(records) == 0 {
		return MetadataTable{}, fmt.Errorf("parse metadata %s: missing header row", path)
	}

	// dataframe.LoadRecords rejects a header without rows.
	if len(records) == 1 {
		cols := lo.Map(records[0], func(name string, _ int) series.Series {
			return series.New([]string{}, series.String, name)
		})
		return NewMetadataTable(dataframe.New(cols...)), nil
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return MetadataTable{}, fmt.Errorf("parse metadata %s: %w", path, df.Err)
	}
	return NewMetadataTable(df), nil
}

// NewMetadataTable wraps df. When df carries all KeyColumns its rows are
// indexed for Lookup. Rows sharing a key overwrite each other, so Lookup
// returns the last of them.
func NewMetadataTable(df dataframe.DataFrame) MetadataTable {
	t := MetadataTable{df: df}
	names := df.Names()
	if df.Nrow() == 0 || !lo.Every(names, KeyColumns) {
		return t
	}

	records := df.Records()
	header := records[0]
	t.index = make(map[patch.Key]map[string]string, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, name := range header {
			row[name] = rec[i]
		}
		key, ok := rowKey(row)
		if !ok {
			continue
		}
		t.index[key] = row
	}
	return t
}

func (t MetadataTable) Nrow() int { return t.df.Nrow() }

func (t MetadataTable) Names() []string { return t.df.Names() }

func (t MetadataTable) DataFrame() dataframe.DataFrame { return t.df }

// Indexed reports whether Lookup can succeed.
func (t MetadataTable) Indexed() bool { return t.index != nil }

// Lookup returns the metadata row describing the patch with key k. Numeric
// patient ids match regardless of zero padding ("004" == "4").
func (t MetadataTable) Lookup(k patch.Key) (map[string]string, bool) {
	if t.index == nil {
		return nil, false
	}
	k.PatientID = normalizeID(k.PatientID)
	k.Node = normalizeID(k.Node)
	row, ok := t.index[k]
	return row, ok
}

func rowKey(row map[string]string) (patch.Key, bool) {
	x, err := strconv.Atoi(row[ColX])
	if err != nil {
		return patch.Key{}, false
	}
	y, err := strconv.Atoi(row[ColY])
	if err != nil {
		return patch.Key{}, false
	}
	return patch.Key{
		PatientID: normalizeID(row[ColPatient]),
		Node:      normalizeID(row[ColNode]),
		X:         x,
		Y:         y,
	}, true
}

func normalizeID(s string) string {
	if n, err := strconv.Atoi(s); err == nil {
		return strconv.Itoa(n)
	}
	return s
}
