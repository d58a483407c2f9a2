// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// PruneAction records what Prune did with one second-level directory.
type PruneAction struct {
	Path    string `json:"path"`
	Kept    bool   `json:"kept"`
	Removed bool   `json:"removed"`
}

// Prune walks the directories directly under base and, inside each of them,
// removes every subdirectory whose name is not in keep. Files at either level
// are left alone. With dryRun nothing is removed and Removed stays false.
func Prune(base string, keep []string, dryRun bool, logger *zap.Logger) ([]PruneAction, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := mustExist(base, "prune base"); err != nil {
		return nil, err
	}

	roots, err := os.ReadDir(base)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", base, err)
	}

	var actions []PruneAction
	for _, root := range roots {
		if !root.IsDir() {
			continue
		}
		rootPath := filepath.Join(base, root.Name())
		logger.Info("processing", zap.String("path", rootPath))

		subs, err := os.ReadDir(rootPath)
		if err != nil {
			return actions, fmt.Errorf("read %s: %w", rootPath, err)
		}
		for _, sub := range subs {
			if !sub.IsDir() {
				continue
			}
			subPath := filepath.Join(rootPath, sub.Name())
			if lo.Contains(keep, sub.Name()) {
				logger.Info("keeping", zap.String("path", subPath))
				actions = append(actions, PruneAction{Path: subPath, Kept: true})
				continue
			}

			logger.Info("deleting", zap.String("path", subPath), zap.Bool("dry_run", dryRun))
			action := PruneAction{Path: subPath}
			if !dryRun {
				if err := os.RemoveAll(subPath); err != nil {
					return actions, fmt.Errorf("remove %s: %w", subPath, err)
				}
				action.Removed = true
			}
			actions = append(actions, action)
		}
	}
	return actions, nil
}
