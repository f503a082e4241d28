package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Backend   string // postgres or supabase
	Database  DatabaseConfig
	Supabase  SupabaseConfig
	Migration MigrationConfig
	Scheduler SchedulerConfig
	DBPath    string // sqlite run-history database
	LogPath   string
}

type DatabaseConfig struct {
	URL string
}

type SupabaseConfig struct {
	URL        string
	ServiceKey string
}

// MigrationConfig tunes the engine. Defaults come from env; a
// config/migration.yaml file, if present, overrides them.
type MigrationConfig struct {
	SourceTable      string `yaml:"source_table"`
	DestTable        string `yaml:"dest_table"`
	BatchSize        int    `yaml:"batch_size"`
	FetchPolicy      string `yaml:"fetch_policy"` // retry or skip
	SkipExisting     bool   `yaml:"skip_existing"`
	MaxRetries       int    `yaml:"max_retries"`
	RetryDelayMS     int    `yaml:"retry_delay_ms"`
	MaxFetchFailures int    `yaml:"max_fetch_failures"`
}

type SchedulerConfig struct {
	Cron     string
	Interval time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Backend: getEnv("MIGRATOR_BACKEND", "postgres"),
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Supabase: SupabaseConfig{
			URL:        os.Getenv("SUPABASE_URL"),
			ServiceKey: os.Getenv("SUPABASE_SERVICE_KEY"),
		},
		Migration: MigrationConfig{
			SourceTable:      getEnv("SOURCE_TABLE", "scraped_ads"),
			DestTable:        getEnv("DEST_TABLE", "live_ads"),
			BatchSize:        getEnvInt("MIGRATE_BATCH_SIZE", 500),
			FetchPolicy:      getEnv("MIGRATE_FETCH_POLICY", "retry"),
			SkipExisting:     os.Getenv("MIGRATE_SKIP_EXISTING") == "true",
			MaxRetries:       getEnvInt("MIGRATE_MAX_RETRIES", 3),
			RetryDelayMS:     getEnvInt("MIGRATE_RETRY_DELAY_MS", 1000),
			MaxFetchFailures: getEnvInt("MIGRATE_MAX_FETCH_FAILURES", 10),
		},
		Scheduler: SchedulerConfig{
			Cron: os.Getenv("MIGRATE_CRON"),
		},
		DBPath:  getEnv("DB_PATH", "migrator.db"),
		LogPath: getEnv("LOG_PATH", "migrator.log"),
	}

	if interval := os.Getenv("MIGRATE_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err == nil {
			cfg.Scheduler.Interval = d
		}
	}

	if err := cfg.loadMigrationFile("config/migration.yaml"); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadMigrationFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := yaml.Unmarshal(data, &c.Migration); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) validate() error {
	switch c.Backend {
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	case "supabase":
		if c.Supabase.URL == "" || c.Supabase.ServiceKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_KEY are required for the supabase backend")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	switch c.Migration.FetchPolicy {
	case "retry", "skip":
	default:
		return fmt.Errorf("unknown fetch policy %q", c.Migration.FetchPolicy)
	}

	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
