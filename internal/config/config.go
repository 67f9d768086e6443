// Package config loads the application settings from the environment (and an
// optional .env file loaded by the caller) using viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	ServerPort         string        `mapstructure:"SERVER_PORT"`
	DataDir            string        `mapstructure:"DATA_DIR"`
	CandidatesCSV      string        `mapstructure:"CANDIDATES_CSV"`
	AnalysisCandidates int           `mapstructure:"ANALYSIS_CANDIDATES"`
	CacheTTL           time.Duration `mapstructure:"CACHE_TTL"`

	DBType      string `mapstructure:"DB_TYPE"`
	SQLitePath  string `mapstructure:"SQLITE_PATH"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	TokenTTL  time.Duration `mapstructure:"TOKEN_TTL"`

	LicensePath     string `mapstructure:"LICENSE_PATH"`
	LicenseRequired bool   `mapstructure:"LICENSE_REQUIRED"`

	LogFile string `mapstructure:"LOG_FILE"`
	Verbose bool   `mapstructure:"VERBOSE"`

	CacheEvictSchedule   string `mapstructure:"CACHE_EVICT_SCHEDULE"`
	ExpirySchedule       string `mapstructure:"EXPIRY_SCHEDULE"`
	DailySendSchedule    string `mapstructure:"DAILY_SEND_SCHEDULE"`
	LicenseCheckSchedule string `mapstructure:"LICENSE_CHECK_SCHEDULE"`

	PixKey      string `mapstructure:"PIX_KEY"`
	PixMerchant string `mapstructure:"PIX_MERCHANT"`
	PixCity     string `mapstructure:"PIX_CITY"`
	BoletoBank  string `mapstructure:"BOLETO_BANK"`
}

var defaults = map[string]interface{}{
	"SERVER_PORT":            "8080",
	"DATA_DIR":               "./dados",
	"CANDIDATES_CSV":         "",
	"ANALYSIS_CANDIDATES":    500,
	"CACHE_TTL":              "1h",
	"DB_TYPE":                "sqlite",
	"SQLITE_PATH":            "./loterias.db",
	"DATABASE_URL":           "",
	"JWT_SECRET":             "",
	"TOKEN_TTL":              "24h",
	"LICENSE_PATH":           "./licenca.json",
	"LICENSE_REQUIRED":       false,
	"LOG_FILE":               "",
	"VERBOSE":                true,
	"CACHE_EVICT_SCHEDULE":   "@every 10m",
	"EXPIRY_SCHEDULE":        "@hourly",
	"DAILY_SEND_SCHEDULE":    "0 8 * * *",
	"LICENSE_CHECK_SCHEDULE": "0 7 * * *",
	"PIX_KEY":                "",
	"PIX_MERCHANT":           "Loterias",
	"PIX_CITY":               "Sao Paulo",
	"BOLETO_BANK":            "001",
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (config Config, err error) {
	for key, value := range defaults {
		viper.SetDefault(key, value)
		// Bind explicitly so every key shows up in Unmarshal.
		_ = viper.BindEnv(key)
	}
	viper.AutomaticEnv()

	if err = viper.Unmarshal(&config); err != nil {
		return config, err
	}
	config.DBType = strings.ToLower(config.DBType)

	switch config.DBType {
	case "sqlite":
	case "postgres":
		if config.DatabaseURL == "" {
			return config, fmt.Errorf("DATABASE_URL is required when DB_TYPE=postgres")
		}
	default:
		return config, fmt.Errorf("unsupported DB_TYPE %q", config.DBType)
	}
	if config.JWTSecret == "" {
		return config, fmt.Errorf("JWT_SECRET is required")
	}
	return config, nil
}

// DSN returns the connection string for the configured database.
func (c Config) DSN() string {
	if c.DBType == "postgres" {
		return c.DatabaseURL
	}
	return c.SQLitePath
}
