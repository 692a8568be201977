package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAppConfigDefaults(t *testing.T) {
	t.Setenv("TARGET_URL", "https://market.example/daily?d={date}")
	t.Setenv("DB_PATH", "")
	t.Setenv("OUT_DIR", "")
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := GetAppConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://market.example/daily?d={date}", cfg.TargetURL)
	assert.Equal(t, "./local-data/market.db", cfg.DBPath)
	assert.Equal(t, "./local-data/csv", cfg.OutDir)
	assert.Equal(t, "config.yaml", cfg.ConfigPath)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadSiteConfig(t *testing.T) {
	yaml := `
fetch_mode: browser
date_layout: "2006.01.02"
selectors:
  table: "table.pricetable"
columns:
  crop_name: "품목"
disallowed_keywords: ["total"]
split_by_commodity: true
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := LoadSiteConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "browser", cfg.FetchMode)
	assert.Equal(t, "2006.01.02", cfg.DateLayout)
	assert.True(t, cfg.SplitByCommodity)
	assert.Equal(t, []string{"total"}, cfg.DisallowedKeywords)

	// Overridden values stick, untouched ones fall back to defaults.
	assert.Equal(t, "table.pricetable", cfg.Selectors.Table)
	assert.Equal(t, "thead th.header", cfg.Selectors.Header)
	assert.Equal(t, "품목", cfg.Columns.CropName)
	assert.Equal(t, "Packaging", cfg.Columns.PackagingType)
}

func TestLoadSiteConfigMissingFile(t *testing.T) {
	_, err := LoadSiteConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadSiteConfigBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("selectors: [not a map"), 0o644))

	_, err := LoadSiteConfig(path)
	assert.Error(t, err)
}

func TestDefaultSiteConfig(t *testing.T) {
	cfg := DefaultSiteConfig()

	assert.Equal(t, "http", cfg.FetchMode)
	assert.Equal(t, "div#right2 b", cfg.Selectors.Date)
	assert.Equal(t, "table.alltable", cfg.Selectors.Table)
	assert.Equal(t, "td.tleft2", cfg.Selectors.FirstCell)
	assert.Equal(t, "Crop", cfg.Columns.CropName)
	assert.False(t, cfg.SplitByCommodity)
}
