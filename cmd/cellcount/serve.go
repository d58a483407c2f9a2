// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/histoprep/cellcount/internal/config"
	"github.com/histoprep/cellcount/internal/logging"
	"github.com/histoprep/cellcount/internal/tool"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.Default()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level, _ = cmd.Flags().GetString("log-level")
	}

	// stdout carries the protocol
	logger, err := logging.WithOutput(cfg.Log.Level, cfg.Log.Format, "stderr")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	server := tool.NewServer(version, tool.NewCounter(cfg, logger))
	logger.Info("serving count_cells over stdio")
	return server.Run(cmd.Context(), &mcp.StdioTransport{})
}
