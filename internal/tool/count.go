// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/histoprep/cellcount/internal/config"
	"github.com/histoprep/cellcount/internal/patch"
	"github.com/histoprep/cellcount/internal/pipeline"
	"github.com/histoprep/cellcount/internal/segment/models"
)

// MetadataCountCells describes the count_cells tool.
var MetadataCountCells = &mcp.Tool{
	Name: "count_cells",
	Description: "Count the cells in every patch image of a Camelyon17-style dataset directory. " +
		"Patch identity (patient, node, x, y) is read from filenames of the form " +
		"patch_patient_<id>_node_<n>_x_<x>_y_<y>.png. " +
		"Returns one record per patch with num_cells and cell_density (cells per pixel), " +
		"the patches that could not be processed, and a summary of the density distribution.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"dataset_root", "metadata_path"},
		"properties": map[string]interface{}{
			"dataset_root": map[string]interface{}{
				"type":        "string",
				"description": "Directory searched recursively for .png patches",
			},
			"metadata_path": map[string]interface{}{
				"type":        "string",
				"description": "Metadata CSV accompanying the dataset",
			},
			"model": map[string]interface{}{
				"type":        "string",
				"description": "Segmentation backend. If omitted, the server's configured model is used.",
				"enum":        models.Names(),
			},
			"workers": map[string]interface{}{
				"type":        "integer",
				"description": "Number of patches processed concurrently",
				"minimum":     1,
			},
		},
	},
}

// InputCountCells is the input for the CountCells tool.
type InputCountCells struct {
	DatasetRoot  string `json:"dataset_root"`
	MetadataPath string `json:"metadata_path"`
	Model        string `json:"model"`
	Workers      int    `json:"workers"`
}

// OutputCountCells is the output for the CountCells tool.
type OutputCountCells struct {
	RunID   string           `json:"run_id"`
	Records []patch.Record   `json:"records"`
	Failed  []FailedPatch    `json:"failed"`
	Summary pipeline.Summary `json:"summary"`
}

type FailedPatch struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

type processFunc func(ctx context.Context, cfg config.Config, logger *zap.Logger) (*pipeline.Result, error)

// Counter serves count_cells on top of a base configuration. Tool input
// overrides the dataset paths, model name and worker count.
type Counter struct {
	base    config.Config
	logger  *zap.Logger
	process processFunc
}

func NewCounter(base config.Config, logger *zap.Logger) *Counter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Counter{base: base, logger: logger, process: pipeline.Process}
}

// CountCells runs the pipeline over the requested dataset.
func (c *Counter) CountCells(ctx context.Context, _ *mcp.CallToolRequest, input InputCountCells) (*mcp.CallToolResult, OutputCountCells, error) {
	if input.DatasetRoot == "" {
		return nil, OutputCountCells{}, fmt.Errorf("dataset_root is required")
	}
	if input.MetadataPath == "" {
		return nil, OutputCountCells{}, fmt.Errorf("metadata_path is required")
	}

	cfg := c.base
	cfg.DatasetRoot = input.DatasetRoot
	cfg.MetadataPath = input.MetadataPath
	if input.Model != "" {
		cfg.Model.Name = input.Model
	}
	if input.Workers > 0 {
		cfg.Workers = input.Workers
	}
	if err := cfg.Validate(); err != nil {
		return nil, OutputCountCells{}, err
	}

	res, err := c.process(ctx, cfg, c.logger)
	if err != nil {
		return nil, OutputCountCells{}, err
	}

	out := OutputCountCells{
		RunID:   res.RunID,
		Records: res.Records,
		Failed:  make([]FailedPatch, 0, len(res.Failed)),
		Summary: res.Summary(),
	}
	if out.Records == nil {
		out.Records = []patch.Record{}
	}
	for _, f := range res.Failed {
		out.Failed = append(out.Failed, FailedPatch{Path: f.Path, Error: f.Err.Error()})
	}
	return nil, out, nil
}

// NewServer returns an MCP server exposing count_cells.
func NewServer(version string, c *Counter) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "cellcount", Version: version}, nil)
	mcp.AddTool(server, MetadataCountCells, c.CountCells)
	return server
}
