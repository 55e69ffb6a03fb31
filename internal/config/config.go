package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"tariffscout/internal/errors"
	"tariffscout/internal/logging"
)

const RegionPlaceholder = "{region}"

type Config struct {
	// RegionsURL is the endpoint listing the carrier's regions.
	RegionsURL string `envconfig:"REGIONS_URL" default:"https://example-carrier.ru/api/regions"`

	// RegionsFile, when set, replaces RegionsURL with a local YAML list.
	RegionsFile string `envconfig:"REGIONS_FILE"`

	// PageURLTemplate must contain {region}; it becomes the storefront subdomain.
	PageURLTemplate string `envconfig:"PAGE_URL_TEMPLATE" default:"https://{region}.example-carrier.ru/tariffs/mobile"`

	// StateVariable is the left-hand side of the script assignment holding the tariffs.
	StateVariable string `envconfig:"STATE_VARIABLE" default:"window.globalSettings.tarifficatorGlobalSettings"`

	TariffCategory string `envconfig:"TARIFF_CATEGORY" default:"mobile"`

	// CacheBackend is "file" or "sqlite".
	CacheBackend string `envconfig:"CACHE_BACKEND" default:"file"`
	CacheDir     string `envconfig:"CACHE_DIR" default:"./cache"`
	CacheDB      string `envconfig:"CACHE_DB" default:"./cache/tariffs.db"`

	OutputFile string `envconfig:"OUTPUT_FILE" default:"./prices.json"`

	// DatabaseURL enables the Postgres price history when set.
	DatabaseURL string `envconfig:"DB_URL"`

	MetricsFile string `envconfig:"METRICS_FILE"`

	// Workers > 1 fetches regions in parallel.
	Workers int `envconfig:"WORKERS" default:"1"`

	// RateLimit is the minimum spacing between requests to the same site.
	RateLimit time.Duration `envconfig:"RATE_LIMIT" default:"2s"`

	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	Retries        int           `envconfig:"RETRIES" default:"2"`
	UserAgent      string        `envconfig:"USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"`

	// FetchMode is "http" or "browser".
	FetchMode        string `envconfig:"FETCH_MODE" default:"http"`
	RespectRobots    bool   `envconfig:"RESPECT_ROBOTS" default:"true"`
	CloudflareBypass bool   `envconfig:"CLOUDFLARE_BYPASS" default:"true"`

	// ReportFormat is "text" or "table".
	ReportFormat string `envconfig:"REPORT_FORMAT" default:"text"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`
	LogOutput string `envconfig:"LOG_OUTPUT" default:"stderr"`
}

// Load processes environment variables and populates the Config struct.
func Load() (*Config, error) {
	// A missing .env is normal outside of local development.
	if err := godotenv.Load(); err != nil {
		if _, statErr := os.Stat(".env"); statErr == nil {
			log.Printf("Warning: .env file found but could not be loaded: %v", err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(errors.TypeConfig, "process environment", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.RegionsURL == "" && c.RegionsFile == "":
		return errors.New(errors.TypeConfig, "one of REGIONS_URL or REGIONS_FILE is required")
	case !strings.Contains(c.PageURLTemplate, RegionPlaceholder):
		return errors.Newf(errors.TypeConfig, "PAGE_URL_TEMPLATE must contain %s", RegionPlaceholder)
	case strings.TrimSpace(c.StateVariable) == "":
		return errors.New(errors.TypeConfig, "STATE_VARIABLE is empty")
	case c.Workers < 1:
		return errors.Newf(errors.TypeConfig, "WORKERS must be at least 1, got %d", c.Workers)
	case c.Retries < 0:
		return errors.Newf(errors.TypeConfig, "RETRIES must not be negative, got %d", c.Retries)
	case c.OutputFile == "":
		return errors.New(errors.TypeConfig, "OUTPUT_FILE is empty")
	}
	if err := oneOf("CACHE_BACKEND", c.CacheBackend, "file", "sqlite"); err != nil {
		return err
	}
	if err := oneOf("FETCH_MODE", c.FetchMode, "http", "browser"); err != nil {
		return err
	}
	return oneOf("REPORT_FORMAT", c.ReportFormat, "text", "table")
}

// PageURL renders the storefront URL for a region.
func (c *Config) PageURL(regionID string) string {
	return strings.ReplaceAll(c.PageURLTemplate, RegionPlaceholder, regionID)
}

func (c *Config) Logging() logging.Config {
	return logging.Config{
		Level:  c.LogLevel,
		Format: c.LogFormat,
		Output: c.LogOutput,
	}
}

func oneOf(key, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return errors.Newf(errors.TypeConfig, "%s must be one of %s, got %q", key, strings.Join(allowed, ", "), value)
}

func (c *Config) String() string {
	return fmt.Sprintf("regions=%s cache=%s output=%s workers=%d mode=%s", c.regionSource(), c.CacheBackend, c.OutputFile, c.Workers, c.FetchMode)
}

func (c *Config) regionSource() string {
	if c.RegionsFile != "" {
		return c.RegionsFile
	}
	return c.RegionsURL
}
