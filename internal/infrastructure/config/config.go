package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Search   SearchConfig   `mapstructure:"search"`
	Coverage CoverageConfig `mapstructure:"coverage"`
	Terms    TermsConfig    `mapstructure:"terms"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host         string   `mapstructure:"host"`
	HTTPPort     int      `mapstructure:"http_port"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
	LogSQL   bool   `mapstructure:"log_sql"`
}

// RedisConfig holds the result cache connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SearchConfig tunes the request-path search pipeline.
type SearchConfig struct {
	CacheTTL           time.Duration `mapstructure:"cache_ttl"`
	HydrateConcurrency int64         `mapstructure:"hydrate_concurrency"`
	HydrateBatchSize   int           `mapstructure:"hydrate_batch_size"`
	ParamBudget        int           `mapstructure:"param_budget"`
}

// CoverageConfig tunes coverage index health checks and repair.
type CoverageConfig struct {
	HealthyRatio        float64 `mapstructure:"healthy_ratio"`
	MinIndexRows        int64   `mapstructure:"min_index_rows"`
	LanguagesPerCard    float64 `mapstructure:"languages_per_card"`
	BulkRepairCardLimit int64   `mapstructure:"bulk_repair_card_limit"`
	RepairChunkSpan     int32   `mapstructure:"repair_chunk_span"`
	RepairSchedule      string  `mapstructure:"repair_schedule"`
}

// TermsConfig tunes the background autocomplete term extractor.
type TermsConfig struct {
	ScanBatch   int32  `mapstructure:"scan_batch"`
	UpsertChunk int    `mapstructure:"upsert_chunk"`
	Schedule    string `mapstructure:"schedule"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set default values
	setDefaults()

	// Enable reading from environment variables
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read configuration file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.http_port", 8080)
	viper.SetDefault("server.allow_origins", []string{"*"})

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "subsearch")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.log_sql", false)

	// Redis defaults
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Search defaults
	viper.SetDefault("search.cache_ttl", "5m")
	viper.SetDefault("search.hydrate_concurrency", 20)
	viper.SetDefault("search.hydrate_batch_size", 200)
	viper.SetDefault("search.param_budget", 65000)

	// Coverage defaults
	viper.SetDefault("coverage.healthy_ratio", 0.5)
	viper.SetDefault("coverage.min_index_rows", 5000)
	viper.SetDefault("coverage.languages_per_card", 2)
	viper.SetDefault("coverage.bulk_repair_card_limit", 200000)
	viper.SetDefault("coverage.repair_chunk_span", 10000)
	viper.SetDefault("coverage.repair_schedule", "30m")

	// Term extraction defaults
	viper.SetDefault("terms.scan_batch", 500)
	viper.SetDefault("terms.upsert_chunk", 1000)
	viper.SetDefault("terms.schedule", "1h")

	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
