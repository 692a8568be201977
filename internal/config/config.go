package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AppConfig holds infrastructure config from standard env vars.
type AppConfig struct {
	TargetURL  string // Bulletin page URL, may contain a {date} placeholder
	DBPath     string
	OutDir     string // Directory the daily CSV files are written to
	ConfigPath string // Path to the YAML site config
	LogLevel   string
}

// SiteConfig holds all target-site specific settings (from YAML).
type SiteConfig struct {
	FetchMode          string    `yaml:"fetch_mode"` // "http" (default) or "browser"
	DateLayout         string    `yaml:"date_layout"`
	Selectors          Selectors `yaml:"selectors"`
	Columns            Columns   `yaml:"columns"`
	SplitByCommodity   bool      `yaml:"split_by_commodity"`
	DisallowedKeywords []string  `yaml:"disallowed_keywords"`
}

// Selectors are the CSS selectors used to pull fields out of the page.
// Defaults match the bulletin markup the scraper was written against.
type Selectors struct {
	Date           string `yaml:"date"`
	CommodityLinks string `yaml:"commodity_links"`
	Table          string `yaml:"table"`
	Header         string `yaml:"header"`
	FirstCell      string `yaml:"first_cell"`
	Cell           string `yaml:"cell"`
}

// Columns maps the site's published column captions onto record fields.
type Columns struct {
	CropName                string `yaml:"crop_name"`
	PackagingType           string `yaml:"packaging_type"`
	UnitPrice               string `yaml:"unit_price"`
	DailyVolume             string `yaml:"daily_volume"`
	CumulativeMonthlyVolume string `yaml:"cumulative_monthly_volume"`
	Revenue                 string `yaml:"revenue"`
}

// GetAppConfig reads basic infrastructure settings from environment variables.
func GetAppConfig() (AppConfig, error) {
	cfg := AppConfig{
		TargetURL:  os.Getenv("TARGET_URL"),
		DBPath:     os.Getenv("DB_PATH"),
		OutDir:     os.Getenv("OUT_DIR"),
		ConfigPath: os.Getenv("CONFIG_PATH"),
		LogLevel:   os.Getenv("LOG_LEVEL"),
	}

	// Set defaults if not provided
	if cfg.DBPath == "" {
		cfg.DBPath = "./local-data/market.db"
	}
	if cfg.OutDir == "" {
		cfg.OutDir = "./local-data/csv"
	}
	if cfg.ConfigPath == "" {
		cfg.ConfigPath = "config.yaml"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// LoadSiteConfig reads the YAML file to configure the scraper.
func LoadSiteConfig(path string) (*SiteConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file at '%s': %w", path, err)
	}
	var cfg SiteConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// DefaultSiteConfig returns a SiteConfig for the stock bulletin markup,
// usable when no YAML file is present.
func DefaultSiteConfig() *SiteConfig {
	cfg := &SiteConfig{}
	cfg.applyDefaults()
	return cfg
}

func (c *SiteConfig) applyDefaults() {
	if c.FetchMode == "" {
		c.FetchMode = "http"
	}
	if c.DateLayout == "" {
		c.DateLayout = "2006-01-02"
	}
	if c.Selectors.Date == "" {
		c.Selectors.Date = "div#right2 b"
	}
	if c.Selectors.CommodityLinks == "" {
		c.Selectors.CommodityLinks = "div.commodity-list div > a"
	}
	if c.Selectors.Table == "" {
		c.Selectors.Table = "table.alltable"
	}
	if c.Selectors.Header == "" {
		c.Selectors.Header = "thead th.header"
	}
	if c.Selectors.FirstCell == "" {
		c.Selectors.FirstCell = "td.tleft2"
	}
	if c.Selectors.Cell == "" {
		c.Selectors.Cell = "td.tleft"
	}
	if c.Columns.CropName == "" {
		c.Columns.CropName = "Crop"
	}
	if c.Columns.PackagingType == "" {
		c.Columns.PackagingType = "Packaging"
	}
	if c.Columns.UnitPrice == "" {
		c.Columns.UnitPrice = "Price"
	}
	if c.Columns.DailyVolume == "" {
		c.Columns.DailyVolume = "Daily Volume"
	}
	if c.Columns.CumulativeMonthlyVolume == "" {
		c.Columns.CumulativeMonthlyVolume = "Monthly Volume"
	}
	if c.Columns.Revenue == "" {
		c.Columns.Revenue = "Revenue"
	}
}
