package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	env "github.com/caarlos0/env/v11"
	"github.com/robfig/cron/v3"

	"backoffice/internal/log"
)

type Config struct {
	// HTTP Server
	Port int `env:"PORT" envDefault:"8081"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// Reporting
	TimeZone   string `env:"TZ" envDefault:"Asia/Dubai"`
	HouseLabel string `env:"HOUSE_LABEL" envDefault:"zaad"`

	// Backend selection
	DataBackend  string `env:"DATA_BACKEND" envDefault:"sqlite"`
	SQLiteDBPath string `env:"SQLITE_DB_PATH" envDefault:"./data/backoffice.db"`
	SeedFile     string `env:"SEED_FILE"`

	// AMQP
	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"backoffice"`
	AMQPQueue    string `env:"AMQP_QUEUE" envDefault:"backoffice_events"`

	// Google Sheets export
	GoogleSpreadsheetID       string `env:"GOOGLE_SPREADSHEET_ID"`
	GoogleServiceAccountJSON  string `env:"GOOGLE_SERVICE_ACCOUNT_JSON"`
	GoogleServiceAccountFile  string `env:"GOOGLE_SERVICE_ACCOUNT_FILE"`
	GoogleApplicationCredPath string `env:"GOOGLE_APPLICATION_CREDENTIALS"`
	SummarySheet              string `env:"SUMMARY_SHEET" envDefault:"Summary"`
	QueueSheet                string `env:"QUEUE_SHEET" envDefault:"Documents"`

	// Worker schedules (cron with seconds)
	ExportSchedule      string `env:"EXPORT_SCHEDULE" envDefault:"0 0 * * * *"`
	ExpirySweepSchedule string `env:"EXPIRY_SWEEP_SCHEDULE" envDefault:"0 30 6 * * *"`

	// Rate limiting for mutating requests
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"20"`

	// Report cache
	CacheTTL  time.Duration `env:"CACHE_TTL" envDefault:"2m"`
	CacheSize int           `env:"CACHE_SIZE" envDefault:"128"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// Location resolves TimeZone. Validate has already rejected unknown zones.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SheetsEnabled reports whether a spreadsheet export target is configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if c.Port < 1 || c.Port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", c.Port))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}
	if f := strings.ToLower(c.LogFormat); f != "text" && f != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid time zone '%s': %v", c.TimeZone, err))
	}
	if strings.TrimSpace(c.HouseLabel) == "" {
		errors = append(errors, "house label cannot be empty")
	}

	validBackends := []string{"memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.SeedFile != "" {
		if _, err := os.Stat(c.SeedFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("seed file does not exist: %s", c.SeedFile))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.SheetsEnabled() {
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" && c.GoogleApplicationCredPath == "" {
			errors = append(errors, "one of GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS is required when GOOGLE_SPREADSHEET_ID is set")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
		if c.SummarySheet == "" || c.QueueSheet == "" {
			errors = append(errors, "summary and queue sheet names cannot be empty when GOOGLE_SPREADSHEET_ID is set")
		}
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for name, spec := range map[string]string{"EXPORT_SCHEDULE": c.ExportSchedule, "EXPIRY_SWEEP_SCHEDULE": c.ExpirySweepSchedule} {
		if _, err := parser.Parse(spec); err != nil {
			errors = append(errors, fmt.Sprintf("invalid %s '%s': %v", name, spec, err))
		}
	}

	if c.RateLimitRPS <= 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %v: must be positive", c.RateLimitRPS))
	}
	if c.RateLimitBurst < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit burst %d: must be at least 1", c.RateLimitBurst))
	}

	if c.CacheSize < 1 || c.CacheSize > 10000 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be between 1 and 10000", c.CacheSize))
	}
	if c.CacheTTL < time.Second || c.CacheTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be between 1 second and 24 hours", c.CacheTTL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}
