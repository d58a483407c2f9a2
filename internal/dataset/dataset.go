// SPDX-License-Identifier: Apache-2.0

// Package dataset locates the patch images of a dataset directory and loads
// the metadata table that accompanies them.
package dataset

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/histoprep/cellcount/internal/patch"
)

// Dataset is the input of one preparation run.
type Dataset struct {
	Root     string
	Metadata MetadataTable
	// Files are absolute paths of every .png under Root, in WalkDir order.
	Files []string
}

// Open checks that root and metadataPath exist (root first), loads the
// metadata table and lists the patch images under root.
func Open(root, metadataPath string) (*Dataset, error) {
	if err := mustExist(root, "dataset root"); err != nil {
		return nil, err
	}
	if err := mustExist(metadataPath, "metadata"); err != nil {
		return nil, err
	}

	md, err := LoadMetadata(metadataPath)
	if err != nil {
		return nil, err
	}

	files, err := ListPatches(root)
	if err != nil {
		return nil, err
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve dataset root: %w", err)
	}
	return &Dataset{Root: absRoot, Metadata: md, Files: files}, nil
}

// ListPatches walks root recursively and returns the absolute path of every
// non-directory entry whose name ends in .png. Subdirectories that cannot be
// read are skipped. A root that is not a directory holds no patches.
func ListPatches(root string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve dataset root: %w", err)
	}

	files := []string{}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("list patches under %s: %w", root, err)
	}
	if !info.IsDir() {
		return files, nil
	}

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), patch.Extension) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list patches under %s: %w", root, err)
	}
	return files, nil
}

func mustExist(path, role string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return &PathNotFoundError{Path: path, Role: role}
		}
		return fmt.Errorf("stat %s %s: %w", role, path, err)
	}
	return nil
}
