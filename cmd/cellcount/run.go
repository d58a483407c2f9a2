// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/histoprep/cellcount/internal/config"
	"github.com/histoprep/cellcount/internal/logging"
	"github.com/histoprep/cellcount/internal/pipeline"
)

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// keep stdout clean when it carries the CSV
	logOut := "stdout"
	report := cmd.OutOrStdout()
	if cfg.OutputPath == "-" {
		logOut = "stderr"
		report = cmd.ErrOrStderr()
	}
	logger, err := logging.WithOutput(cfg.Log.Level, cfg.Log.Format, logOut)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	res, err := pipeline.Process(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	if cfg.OutputPath != "" {
		if err := writeTable(cmd.OutOrStdout(), cfg.OutputPath, res.Table()); err != nil {
			return err
		}
		logger.Info("wrote results",
			zap.String("path", cfg.OutputPath),
			zap.Int("rows", res.Table().Len()),
		)
	}

	fmt.Fprintln(report, res.Summary().Render())
	return nil
}

// loadConfig reads --config when given and applies the flags that were set
// on the command line on top of it.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return config.Config{}, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("root") {
		cfg.DatasetRoot, _ = flags.GetString("root")
	}
	if flags.Changed("metadata") {
		cfg.MetadataPath, _ = flags.GetString("metadata")
	}
	if flags.Changed("out") {
		cfg.OutputPath, _ = flags.GetString("out")
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("model") {
		cfg.Model.Name, _ = flags.GetString("model")
	}
	if flags.Changed("join-metadata") {
		cfg.JoinMetadata, _ = flags.GetBool("join-metadata")
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	return cfg, nil
}

func writeTable(stdout io.Writer, path string, table pipeline.ResultTable) error {
	if path == "-" {
		return table.WriteCSV(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := table.WriteCSV(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
