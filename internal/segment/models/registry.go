// SPDX-License-Identifier: Apache-2.0

// Package models holds the segmentation backends selectable by name.
package models

import (
	"fmt"
	"sort"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/histoprep/cellcount/internal/segment"
)

// Options carries backend-specific settings. Backends ignore fields they do
// not use.
type Options struct {
	// Command and Args launch an external segmentation tool.
	Command string
	Args    []string
	// MinArea drops connected components smaller than this many pixels.
	// Zero derives it from the configured diameter.
	MinArea int
	// BrightForeground treats objects brighter than the background as
	// foreground. Stained nuclei are dark, so this is normally false.
	BrightForeground bool
}

// Constructor builds a model from options.
type Constructor func(opts Options, logger *zap.Logger) (segment.Model, error)

var (
	mu       sync.RWMutex
	registry = map[string]Constructor{}
)

// Register makes a backend available under name. It panics on duplicates.
func Register(name string, c Constructor) {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := registry[name]; ok {
		panic(fmt.Sprintf("segmentation model %q registered twice", name))
	}
	registry[name] = c
}

// New builds the backend registered under name.
func New(name string, opts Options, logger *zap.Logger) (segment.Model, error) {
	mu.RLock()
	c, ok := registry[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown segmentation model %q (available: %v)", name, Names())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return c(opts, logger.Named(name))
}

// Names returns the registered backend names in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := lo.Keys(registry)
	sort.Strings(names)
	return names
}
