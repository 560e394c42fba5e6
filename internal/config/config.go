package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	PostgreSQL PostgreSQLConfig
	ClickHouse ClickHouseConfig
	Redis      RedisConfig
	Cache      CacheConfig
	Auth       AuthConfig
	Logging    LoggingConfig
}

type ServerConfig struct {
	Port            string
	Environment     string
	ReadTimeout     int
	WriteTimeout    int
	ShutdownTimeout int
}

type PostgreSQLConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

type ClickHouseConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Debug    bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Enabled  bool
}

// CacheConfig drives the snapshot cache and its warmer. WarmRatio is the
// fraction of the TTL after which a fresh warm cycle runs, so entries are
// refreshed before they expire.
type CacheConfig struct {
	TTLSeconds           int
	WarmRatio            float64
	WarmerEnabled        bool
	WarmGraceSeconds     int
	FreshnessOffsetHours int
}

type AuthConfig struct {
	Enabled     bool
	AdminAPIKey string
}

type LoggingConfig struct {
	Level      string
	Format     string // json or console
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/golem-stats")

	// Environment variables override
	viper.SetEnvPrefix("GOLEM_STATS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Default values
	setDefaults()

	// Read config file (optional)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("No config file found, using environment variables and defaults")
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.environment", "development")
	viper.SetDefault("server.readtimeout", 30)
	viper.SetDefault("server.writetimeout", 30)
	viper.SetDefault("server.shutdowntimeout", 10)

	// PostgreSQL defaults
	viper.SetDefault("postgresql.host", "localhost")
	viper.SetDefault("postgresql.port", 5432)
	viper.SetDefault("postgresql.database", "golem_stats")
	viper.SetDefault("postgresql.username", "stats")
	viper.SetDefault("postgresql.password", "stats")
	viper.SetDefault("postgresql.sslmode", "disable")
	viper.SetDefault("postgresql.maxconns", 10)
	viper.SetDefault("postgresql.minconns", 2)

	// ClickHouse defaults
	viper.SetDefault("clickhouse.host", "localhost")
	viper.SetDefault("clickhouse.port", 9000)
	viper.SetDefault("clickhouse.database", "chain")
	viper.SetDefault("clickhouse.username", "default")
	viper.SetDefault("clickhouse.password", "")
	viper.SetDefault("clickhouse.debug", false)

	// Redis defaults
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.enabled", true)

	// Cache defaults
	viper.SetDefault("cache.ttlseconds", 900)
	viper.SetDefault("cache.warmratio", 0.8)
	viper.SetDefault("cache.warmerenabled", true)
	viper.SetDefault("cache.warmgraceseconds", 10)
	viper.SetDefault("cache.freshnessoffsethours", 48)

	// Auth defaults
	viper.SetDefault("auth.enabled", false)
	viper.SetDefault("auth.adminapikey", "")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputpath", "stdout")
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if c.PostgreSQL.Host == "" {
		return fmt.Errorf("postgresql host is required")
	}

	if c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse host is required")
	}

	if c.Cache.TTLSeconds <= 0 {
		return fmt.Errorf("cache ttl must be positive")
	}

	if c.Cache.WarmRatio <= 0 || c.Cache.WarmRatio >= 1 {
		return fmt.Errorf("cache warm ratio must be between 0 and 1")
	}

	if c.Cache.FreshnessOffsetHours < 0 {
		return fmt.Errorf("freshness offset cannot be negative")
	}

	return nil
}
