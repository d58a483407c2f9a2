// SPDX-License-Identifier: Apache-2.0

package logging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/histoprep/cellcount/internal/logging"
)

func TestNewConfig(t *testing.T) {
	cfg, err := logging.NewConfig("debug", "console")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, cfg.Level.Level())
	assert.Equal(t, "console", cfg.Encoding)
	assert.Equal(t, []string{"stdout"}, cfg.OutputPaths)

	cfg, err = logging.NewConfig(" warn ", "json")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, cfg.Level.Level())
	assert.Equal(t, "json", cfg.Encoding)
}

func TestNewConfig_Invalid(t *testing.T) {
	_, err := logging.NewConfig("loud", "console")
	assert.Error(t, err)

	_, err = logging.NewConfig("info", "xml")
	assert.Error(t, err)
}

func TestWithOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	logger, err := logging.WithOutput("info", "json", path)
	require.NoError(t, err)

	logger.Info("found patches")
	logger.Debug("hidden")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"found patches"`)
	assert.NotContains(t, string(data), "hidden")
}
