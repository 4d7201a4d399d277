package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultStartURL is the first page of the public repository listing.
const DefaultStartURL = "https://api.github.com/repositories"

// Config holds all configuration for the application
type Config struct {
	GitHubToken      string
	StartURL         string
	HTTPTimeout      time.Duration
	RateLowWater     int
	RateWaitInterval time.Duration

	DB DBConfig

	CursorDBPath string

	ClassifierPath    string
	ClassifierTimeout time.Duration
	ExportDirectory   string
	ClassifyBatchSize int64

	MetricsAddr string
	LogLevel    string
}

// DBConfig holds the Postgres connection settings
type DBConfig struct {
	User            string
	Password        string
	Name            string
	Host            string
	Port            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN renders the settings as a lib/pq connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s port=%s host=%s sslmode=%s",
		c.User, c.Password, c.Name, c.Port, c.Host, c.SSLMode,
	)
}

// URL renders the settings as a postgres:// URL, the form golang-migrate expects.
func (c DBConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

// NewConfig creates a new Config instance
func NewConfig() *Config {
	return &Config{}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("START_URL", DefaultStartURL)
	v.SetDefault("HTTP_TIMEOUT", "30s")
	v.SetDefault("RATE_LOW_WATER", 4)
	v.SetDefault("RATE_WAIT_INTERVAL", "300s")

	v.SetDefault("POSTGRES_USER", "postgres")
	v.SetDefault("POSTGRES_DB", "ghlicense")
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.SetDefault("POSTGRES_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 4)
	v.SetDefault("DB_MAX_IDLE_CONNS", 4)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")

	v.SetDefault("CURSOR_DB_PATH", "ghlicense-cursor.db")

	v.SetDefault("CLASSIFIER_PATH", "nomos")
	v.SetDefault("CLASSIFIER_TIMEOUT", "60s")
	v.SetDefault("EXPORT_DIRECTORY", "license-export")
	v.SetDefault("CLASSIFY_BATCH_SIZE", 1000)

	v.SetDefault("LOG_LEVEL", "info")
}

// Load loads configuration from an optional config file and the environment.
// An empty path means environment variables and defaults only.
func (c *Config) Load(v *viper.Viper, path string) error {
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	c.GitHubToken = v.GetString("GITHUB_TOKEN")
	c.StartURL = v.GetString("START_URL")
	c.HTTPTimeout = v.GetDuration("HTTP_TIMEOUT")
	c.RateLowWater = v.GetInt("RATE_LOW_WATER")
	c.RateWaitInterval = v.GetDuration("RATE_WAIT_INTERVAL")

	c.DB = DBConfig{
		User:            v.GetString("POSTGRES_USER"),
		Password:        v.GetString("POSTGRES_PASSWORD"),
		Name:            v.GetString("POSTGRES_DB"),
		Host:            v.GetString("POSTGRES_HOST"),
		Port:            v.GetString("POSTGRES_PORT"),
		SSLMode:         v.GetString("POSTGRES_SSLMODE"),
		MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
		ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
	}

	c.CursorDBPath = v.GetString("CURSOR_DB_PATH")

	c.ClassifierPath = v.GetString("CLASSIFIER_PATH")
	c.ClassifierTimeout = v.GetDuration("CLASSIFIER_TIMEOUT")
	c.ExportDirectory = v.GetString("EXPORT_DIRECTORY")
	c.ClassifyBatchSize = v.GetInt64("CLASSIFY_BATCH_SIZE")

	c.MetricsAddr = v.GetString("METRICS_ADDR")
	c.LogLevel = v.GetString("LOG_LEVEL")

	return c.Validate()
}

// Validate enforces required values and reasonable limits
func (c *Config) Validate() error {
	var errs []error
	if c.StartURL == "" {
		errs = append(errs, errors.New("START_URL is required"))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("HTTP_TIMEOUT must be > 0"))
	}
	if c.RateLowWater < 1 {
		errs = append(errs, errors.New("RATE_LOW_WATER must be >= 1"))
	}
	if c.RateWaitInterval <= 0 {
		errs = append(errs, errors.New("RATE_WAIT_INTERVAL must be > 0"))
	}
	if c.DB.Name == "" || c.DB.Host == "" {
		errs = append(errs, errors.New("POSTGRES_DB and POSTGRES_HOST are required"))
	}
	if c.CursorDBPath == "" {
		errs = append(errs, errors.New("CURSOR_DB_PATH is required"))
	}
	if c.ClassifierPath == "" {
		errs = append(errs, errors.New("CLASSIFIER_PATH is required"))
	}
	if c.ClassifierTimeout <= 0 {
		errs = append(errs, errors.New("CLASSIFIER_TIMEOUT must be > 0"))
	}
	if c.ExportDirectory == "" {
		errs = append(errs, errors.New("EXPORT_DIRECTORY is required"))
	}
	if c.ClassifyBatchSize <= 0 {
		errs = append(errs, errors.New("CLASSIFY_BATCH_SIZE must be > 0"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// Load reads configuration into a fresh Config using a private viper instance.
func Load(path string) (*Config, error) {
	cfg := NewConfig()
	if err := cfg.Load(viper.New(), path); err != nil {
		return nil, err
	}
	return cfg, nil
}
