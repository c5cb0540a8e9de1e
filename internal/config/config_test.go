package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)
	t.Setenv("DATASET_KIND", " XLSX ")
	t.Setenv("DATASET_RATE_LIMIT_RPS", "not-a-number")
	t.Setenv("RELOAD_WATCH", "off")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "mech.json"), cfg.JSONPath)
	assert.Equal(t, filepath.Join(dir, "app.db"), cfg.DBPath)
	assert.Equal(t, "xlsx", cfg.DatasetKind)
	assert.Equal(t, filepath.Join(dir, "Mechanisms_Data.xlsx"), cfg.DatasetPath())
	assert.Equal(t, 5, cfg.DatasetRateLimitRPS)
	assert.False(t, cfg.ReloadWatch)
	assert.Equal(t, "127.0.0.1:8000", cfg.HTTPAddr)
}

func TestDatasetPath(t *testing.T) {
	cfg := Config{JSONPath: "a.json", XLSXPath: "a.xlsx", DBPath: "a.db"}

	cases := map[string]string{"json": "a.json", "": "a.json", "xlsx": "a.xlsx", "sqlite": "a.db", "remote": ""}
	for kind, want := range cases {
		cfg.DatasetKind = kind
		assert.Equal(t, want, cfg.DatasetPath(), kind)
	}
}

func TestRequire(t *testing.T) {
	var cfg Config
	assert.EqualError(t, cfg.Require("DATASET_URL", "  "), "missing required env var: DATASET_URL")
	assert.NoError(t, cfg.Require("DATASET_URL", "https://example.test"))
}
