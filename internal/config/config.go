// SPDX-License-Identifier: Apache-2.0

// Package config holds the settings of a preparation run and loads them
// from YAML.
package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/histoprep/cellcount/internal/segment"
	"github.com/histoprep/cellcount/internal/segment/models"
)

// Config is the input of pipeline.Process.
type Config struct {
	DatasetRoot  string `yaml:"dataset_root" json:"dataset_root"`
	MetadataPath string `yaml:"metadata_path" json:"metadata_path"`
	// OutputPath is where the result CSV is written; "-" is stdout and
	// empty means the table is only kept in memory.
	OutputPath   string      `yaml:"output_path" json:"output_path,omitempty"`
	Workers      int         `yaml:"workers" json:"workers"`
	JoinMetadata bool        `yaml:"join_metadata" json:"join_metadata"`
	Model        ModelConfig `yaml:"model" json:"model"`
	Log          LogConfig   `yaml:"log" json:"log"`
}

type ModelConfig struct {
	Name             string   `yaml:"name" json:"name"`
	Type             string   `yaml:"type" json:"type"`
	Diameter         float64  `yaml:"diameter" json:"diameter"`
	GPU              bool     `yaml:"gpu" json:"gpu"`
	Channels         []int    `yaml:"channels" json:"channels"`
	Command          string   `yaml:"command" json:"command,omitempty"`
	Args             []string `yaml:"args" json:"args,omitempty"`
	MinArea          int      `yaml:"min_area" json:"min_area"`
	BrightForeground bool     `yaml:"bright_foreground" json:"bright_foreground"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Default returns the settings of the Camelyon17 preparation run with the
// paths left empty.
func Default() Config {
	p := segment.DefaultParams()
	return Config{
		Workers: 1,
		Model: ModelConfig{
			Name:     "cellpose",
			Type:     p.ModelType,
			Diameter: p.Diameter,
			GPU:      p.GPU,
			Channels: []int{p.Channels[0], p.Channels[1]},
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}

// Load reads a YAML file. Unknown keys are rejected and unset keys take
// their Default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.Strict()); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.fillDefaults()
	return cfg, nil
}

func (c *Config) fillDefaults() {
	d := Default()
	if c.Workers == 0 {
		c.Workers = d.Workers
	}
	if c.Model.Name == "" {
		c.Model.Name = d.Model.Name
	}
	if c.Model.Type == "" {
		c.Model.Type = d.Model.Type
	}
	if c.Model.Diameter == 0 {
		c.Model.Diameter = d.Model.Diameter
	}
	if c.Model.Channels == nil {
		c.Model.Channels = d.Model.Channels
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

// Params converts the model settings to segmentation parameters. Call
// Validate first; missing channels fall back to {0, 0}.
func (m ModelConfig) Params() segment.Params {
	p := segment.Params{ModelType: m.Type, Diameter: m.Diameter, GPU: m.GPU}
	if len(m.Channels) == 2 {
		p.Channels = [2]int{m.Channels[0], m.Channels[1]}
	}
	return p
}

// Options converts the backend-specific settings.
func (m ModelConfig) Options() models.Options {
	return models.Options{
		Command:          m.Command,
		Args:             m.Args,
		MinArea:          m.MinArea,
		BrightForeground: m.BrightForeground,
	}
}
