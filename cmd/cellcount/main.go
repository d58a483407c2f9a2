// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cellcount",
		Short: "Count cells in Camelyon17 patch images",
		Long: `cellcount segments every patch image of a Camelyon17-style dataset,
counts the cells in it and writes one row per patch:

  patient_id,node,x,y,filepath,num_cells,cell_density

Patch identity is read from filenames such as
patch_patient_004_node_4_x_3328_y_21792.png.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Count cells in every patch of a dataset",
		Args:  cobra.NoArgs,
		RunE:  runRun,
	}
	runCmd.Flags().StringP("config", "c", "", "YAML config file")
	runCmd.Flags().String("root", "", "Dataset root directory")
	runCmd.Flags().String("metadata", "", "Metadata CSV file")
	runCmd.Flags().StringP("out", "o", "", "Result CSV file (- for stdout)")
	runCmd.Flags().IntP("workers", "w", 1, "Patches processed concurrently")
	runCmd.Flags().String("model", "cellpose", "Segmentation backend")
	runCmd.Flags().Bool("join-metadata", false, "Add metadata columns to the result")
	runCmd.Flags().String("log-level", "info", "Log level: debug|info|warn|error")

	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove unneeded subdirectories from a dataset tree",
		Long: `prune visits every directory directly under --base and removes each of
its subdirectories that is not named by --keep.`,
		Args: cobra.NoArgs,
		RunE: runPrune,
	}
	pruneCmd.Flags().String("base", "", "Directory whose children are pruned")
	pruneCmd.Flags().StringSlice("keep", nil, "Subdirectory names to keep (repeatable)")
	pruneCmd.Flags().Bool("dry-run", false, "Report what would be removed without removing it")
	pruneCmd.Flags().Bool("json", false, "Print machine-readable actions")
	pruneCmd.Flags().String("log-level", "info", "Log level: debug|info|warn|error")
	_ = pruneCmd.MarkFlagRequired("base")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the count_cells tool over MCP stdio",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	serveCmd.Flags().StringP("config", "c", "", "YAML config file with model and worker defaults")
	serveCmd.Flags().String("log-level", "info", "Log level: debug|info|warn|error")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}

	rootCmd.AddCommand(runCmd, pruneCmd, serveCmd, versionCmd)
	return rootCmd
}
