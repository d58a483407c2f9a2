// SPDX-License-Identifier: Apache-2.0

package dataset_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/histoprep/cellcount/internal/dataset"
	"github.com/histoprep/cellcount/internal/patch"
)

const sampleMetadata = `,patient,node,x_coord,y_coord,tumor,slide,center,split
0,004,4,3328,21792,1,0,0,0
1,004,4,3200,22720,0,0,0,0
`

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func writeMetadata(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "metadata.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleMetadata), 0o644))
	return path
}

// ---------------------------------------------------------------------------
// Open / ListPatches
// ---------------------------------------------------------------------------

func TestOpen_ListsOnlyPNGs(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "patches")
	touch(t, filepath.Join(root, "patient_004_node_4", "patch_patient_004_node_4_x_3328_y_21792.png"))
	touch(t, filepath.Join(root, "patient_004_node_4", "patch_patient_004_node_4_x_3200_y_22720.png"))
	touch(t, filepath.Join(root, "patient_010_node_1", "deeper", "patch_patient_010_node_1_x_1_y_2.png"))
	touch(t, filepath.Join(root, "patient_004_node_4", "notes.txt"))
	touch(t, filepath.Join(root, "patient_004_node_4", "thumb.PNG"))
	touch(t, filepath.Join(root, "patient_004_node_4", "mask.png.bak"))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty.png"), 0o755))

	ds, err := dataset.Open(root, writeMetadata(t, dir))
	require.NoError(t, err)

	require.Len(t, ds.Files, 3)
	for _, f := range ds.Files {
		assert.True(t, strings.HasSuffix(f, patch.Extension), f)
		assert.True(t, filepath.IsAbs(f), f)
	}
	assert.Equal(t, 2, ds.Metadata.Nrow())
	assert.True(t, filepath.IsAbs(ds.Root))
}

func TestOpen_EmptyRoot(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "patches")
	require.NoError(t, os.MkdirAll(root, 0o755))

	ds, err := dataset.Open(root, writeMetadata(t, dir))
	require.NoError(t, err)
	assert.Empty(t, ds.Files)
}

func TestOpen_MissingRootReportedFirst(t *testing.T) {
	dir := t.TempDir()
	_, err := dataset.Open(filepath.Join(dir, "nope"), filepath.Join(dir, "also-missing.csv"))
	require.Error(t, err)

	var notFound *dataset.PathNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "dataset root", notFound.Role)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestOpen_MissingMetadata(t *testing.T) {
	dir := t.TempDir()
	_, err := dataset.Open(dir, filepath.Join(dir, "metadata.csv"))

	var notFound *dataset.PathNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "metadata", notFound.Role)
}

func TestOpen_BadMetadataPropagates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metadata.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2,3\n"), 0o644))

	_, err := dataset.Open(dir, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse metadata")

	var notFound *dataset.PathNotFoundError
	assert.False(t, errors.As(err, &notFound))
}

// ---------------------------------------------------------------------------
// MetadataTable
// ---------------------------------------------------------------------------

func TestMetadataTable_Lookup(t *testing.T) {
	md, err := dataset.LoadMetadata(writeMetadata(t, t.TempDir()))
	require.NoError(t, err)
	require.True(t, md.Indexed())

	row, ok := md.Lookup(patch.Key{PatientID: "004", Node: "4", X: 3328, Y: 21792})
	require.True(t, ok)
	assert.Equal(t, "1", row["tumor"])

	row, ok = md.Lookup(patch.Key{PatientID: "4", Node: "4", X: 3200, Y: 22720})
	require.True(t, ok, "zero padding must not matter")
	assert.Equal(t, "0", row["tumor"])

	_, ok = md.Lookup(patch.Key{PatientID: "004", Node: "4", X: 1, Y: 1})
	assert.False(t, ok)
}

func TestMetadataTable_NoKeyColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644))

	md, err := dataset.LoadMetadata(path)
	require.NoError(t, err)
	assert.False(t, md.Indexed())
	assert.Equal(t, []string{"a", "b"}, md.Names())

	_, ok := md.Lookup(patch.Key{})
	assert.False(t, ok)
}

// ---------------------------------------------------------------------------
// Prune
// ---------------------------------------------------------------------------

func TestPrune(t *testing.T) {
	base := t.TempDir()
	keep := []string{"tissue images", "label masks modify"}
	touch(t, filepath.Join(base, "Human_Liver", "tissue images", "a.tif"))
	touch(t, filepath.Join(base, "Human_Liver", "label masks modify", "a.tif"))
	touch(t, filepath.Join(base, "Human_Liver", "distance maps", "a.tif"))
	touch(t, filepath.Join(base, "Human_Liver", "readme.txt"))
	touch(t, filepath.Join(base, "Human_Kidney", "overlay", "b.png"))
	touch(t, filepath.Join(base, "top.txt"))

	actions, err := dataset.Prune(base, keep, false, nil)
	require.NoError(t, err)

	removed := 0
	for _, a := range actions {
		if a.Removed {
			removed++
		}
	}
	assert.Equal(t, 2, removed)
	assert.Len(t, actions, 4)

	assert.DirExists(t, filepath.Join(base, "Human_Liver", "tissue images"))
	assert.DirExists(t, filepath.Join(base, "Human_Liver", "label masks modify"))
	assert.NoDirExists(t, filepath.Join(base, "Human_Liver", "distance maps"))
	assert.NoDirExists(t, filepath.Join(base, "Human_Kidney", "overlay"))
	assert.FileExists(t, filepath.Join(base, "Human_Liver", "readme.txt"))
	assert.FileExists(t, filepath.Join(base, "top.txt"))
}

func TestPrune_DryRun(t *testing.T) {
	base := t.TempDir()
	touch(t, filepath.Join(base, "organ", "junk", "a.png"))

	actions, err := dataset.Prune(base, nil, true, nil)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.False(t, actions[0].Removed)
	assert.False(t, actions[0].Kept)
	assert.DirExists(t, filepath.Join(base, "organ", "junk"))
}

func TestPrune_MissingBase(t *testing.T) {
	_, err := dataset.Prune(filepath.Join(t.TempDir(), "missing"), nil, true, nil)
	var notFound *dataset.PathNotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestLoadMetadata_HeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.csv")
	require.NoError(t, os.WriteFile(path, []byte("patient,node,x_coord,y_coord\n"), 0o644))

	md, err := dataset.LoadMetadata(path)
	require.NoError(t, err)
	assert.Equal(t, 0, md.Nrow())
	assert.Equal(t, dataset.KeyColumns, md.Names())
	assert.False(t, md.Indexed())
}

func TestListPatches_FileRootHasNoPatches(t *testing.T) {
	file := filepath.Join(t.TempDir(), "patch_patient_004_node_4_x_1_y_2.png")
	touch(t, file)

	files, err := dataset.ListPatches(file)
	require.NoError(t, err)
	assert.Empty(t, files)

	ds, err := dataset.Open(file, writeMetadata(t, t.TempDir()))
	require.NoError(t, err)
	assert.Empty(t, ds.Files)
}

func TestMetadataTable_DuplicateKeyLastRowWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.csv")
	require.NoError(t, os.WriteFile(path, []byte(`patient,node,x_coord,y_coord,tumor
004,4,3328,21792,0
4,4,3328,21792,1
`), 0o644))

	md, err := dataset.LoadMetadata(path)
	require.NoError(t, err)
	assert.Equal(t, 2, md.Nrow())

	row, ok := md.Lookup(patch.Key{PatientID: "004", Node: "4", X: 3328, Y: 21792})
	require.True(t, ok)
	assert.Equal(t, "1", row["tumor"])
}
