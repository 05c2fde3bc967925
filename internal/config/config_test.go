package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Empty(t, cfg.Catalog.Path)
	assert.Equal(t, 40, cfg.Optimization.PopSize)
	assert.Equal(t, 30, cfg.Optimization.Generations)
	assert.Equal(t, 10, cfg.Optimization.Workers)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9999")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CATALOG_PATH", "/etc/turbarch/catalog.yaml")
	t.Setenv("EVAL_TIMEOUT", "5s")
	t.Setenv("OPT_POP_SIZE", "64")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.HTTP.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/etc/turbarch/catalog.yaml", cfg.Catalog.Path)
	assert.Equal(t, "5s", cfg.Evaluation.Timeout.String())
	assert.Equal(t, 64, cfg.Optimization.PopSize)
}

func TestLoadRejectsMalformed(t *testing.T) {
	t.Setenv("HTTP_PORT", "not-a-port")

	_, err := Load()
	require.Error(t, err)
}
