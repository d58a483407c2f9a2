// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/histoprep/cellcount/internal/dataset"
	"github.com/histoprep/cellcount/internal/logging"
)

func runPrune(cmd *cobra.Command, _ []string) error {
	base, _ := cmd.Flags().GetString("base")
	keep, _ := cmd.Flags().GetStringSlice("keep")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	asJSON, _ := cmd.Flags().GetBool("json")
	level, _ := cmd.Flags().GetString("log-level")

	logger, err := logging.WithOutput(level, "console", "stderr")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	actions, err := dataset.Prune(base, keep, dryRun, logger)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(actions)
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Path", "Action"})
	for _, a := range actions {
		action := "keep"
		switch {
		case a.Removed:
			action = "removed"
		case !a.Kept:
			action = "would remove"
		}
		t.AppendRow(table.Row{a.Path, action})
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return nil
}
