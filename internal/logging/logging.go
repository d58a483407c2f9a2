// SPDX-License-Identifier: Apache-2.0

// Package logging builds the zap loggers used by the command line tools.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewConfig returns a zap config that writes to stdout. format is "console"
// (coloured levels, ISO8601 times) or "json".
func NewConfig(level, format string) (zap.Config, error) {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return zap.Config{}, fmt.Errorf("log level: %w", err)
	}

	cfg := zap.Config{
		Level:    zap.NewAtomicLevelAt(lvl),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      zapcore.OmitKey,
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeName:     zapcore.FullNameEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
	}

	switch format {
	case "", "console":
	case "json":
		cfg.Encoding = "json"
		cfg.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	default:
		return zap.Config{}, fmt.Errorf("log format %q: want console or json", format)
	}
	return cfg, nil
}

// New builds a logger from level and format.
func New(level, format string) (*zap.Logger, error) {
	cfg, err := NewConfig(level, format)
	if err != nil {
		return nil, err
	}
	return cfg.Build()
}

// WithOutput is New with the output paths replaced, e.g. "stderr" for the
// MCP server whose stdout carries the protocol.
func WithOutput(level, format string, paths ...string) (*zap.Logger, error) {
	cfg, err := NewConfig(level, format)
	if err != nil {
		return nil, err
	}
	cfg.OutputPaths = paths
	return cfg.Build()
}
