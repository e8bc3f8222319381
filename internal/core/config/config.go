package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the top-level application config.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Cache     CacheConfig     `koanf:"cache"`
	Auth      AuthConfig      `koanf:"auth"`
	Analytics AnalyticsConfig `koanf:"analytics"`
	ETL       ETLConfig       `koanf:"etl"`
}

type ServerConfig struct {
	Port          int    `koanf:"port"`
	Host          string `koanf:"host"`
	MaxBodySizeMB int    `koanf:"max_body_size_mb"`
	Mode          string `koanf:"mode"` // debug | release
}

type DatabaseConfig struct {
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

type CacheConfig struct {
	Type     string `koanf:"type"` // redis | memory
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type AuthConfig struct {
	Secret   string `koanf:"secret"`
	TokenTTL string `koanf:"token_ttl"` // parsed and validated on startup
}

type AnalyticsConfig struct {
	CacheTTL      string `koanf:"cache_ttl"`
	TopUsersLimit int    `koanf:"top_users_limit"`
}

type ETLConfig struct {
	Enabled         bool   `koanf:"enabled"`
	DailyInterval   string `koanf:"daily_interval"`
	QualityInterval string `koanf:"quality_interval"`
	CacheTTL        string `koanf:"cache_ttl"`
	TopUsersLimit   int    `koanf:"top_users_limit"`
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.MaxBodySizeMB <= 0 {
		return fmt.Errorf("server.max_body_size_mb must be > 0")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}

	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be > 0")
	}
	if c.Database.MaxIdleConns <= 0 {
		return fmt.Errorf("database.max_idle_conns must be > 0")
	}

	if c.Cache.Type != "redis" && c.Cache.Type != "memory" {
		return fmt.Errorf("unsupported cache.type %q (must be redis or memory)", c.Cache.Type)
	}
	if c.Cache.Type == "redis" && strings.TrimSpace(c.Cache.Addr) == "" {
		return fmt.Errorf("cache.addr is required when cache.type is redis")
	}

	if strings.TrimSpace(c.Auth.Secret) == "" {
		return fmt.Errorf("auth.secret is required")
	}
	if _, err := parsePositiveDuration(c.Auth.TokenTTL); err != nil {
		return fmt.Errorf("invalid auth.token_ttl %q: %w", c.Auth.TokenTTL, err)
	}

	if _, err := parsePositiveDuration(c.Analytics.CacheTTL); err != nil {
		return fmt.Errorf("invalid analytics.cache_ttl %q: %w", c.Analytics.CacheTTL, err)
	}
	if c.Analytics.TopUsersLimit <= 0 {
		return fmt.Errorf("analytics.top_users_limit must be > 0")
	}

	if _, err := parsePositiveDuration(c.ETL.DailyInterval); err != nil {
		return fmt.Errorf("invalid etl.daily_interval %q: %w", c.ETL.DailyInterval, err)
	}
	if _, err := parsePositiveDuration(c.ETL.QualityInterval); err != nil {
		return fmt.Errorf("invalid etl.quality_interval %q: %w", c.ETL.QualityInterval, err)
	}
	if _, err := parsePositiveDuration(c.ETL.CacheTTL); err != nil {
		return fmt.Errorf("invalid etl.cache_ttl %q: %w", c.ETL.CacheTTL, err)
	}
	if c.ETL.TopUsersLimit <= 0 {
		return fmt.Errorf("etl.top_users_limit must be > 0")
	}

	return nil
}

// AuthTokenTTL returns the validated token lifetime.
func (c *Config) AuthTokenTTL() time.Duration {
	d, _ := parsePositiveDuration(c.Auth.TokenTTL)
	return d
}

// AnalyticsCacheTTL returns the validated read-through cache entry lifetime.
func (c *Config) AnalyticsCacheTTL() time.Duration {
	d, _ := parsePositiveDuration(c.Analytics.CacheTTL)
	return d
}

// ETLDailyInterval returns the validated daily flow interval.
func (c *Config) ETLDailyInterval() time.Duration {
	d, _ := parsePositiveDuration(c.ETL.DailyInterval)
	return d
}

// ETLQualityInterval returns the validated quality flow interval.
func (c *Config) ETLQualityInterval() time.Duration {
	d, _ := parsePositiveDuration(c.ETL.QualityInterval)
	return d
}

// ETLCacheTTL returns the validated pipeline cache entry lifetime.
func (c *Config) ETLCacheTTL() time.Duration {
	d, _ := parsePositiveDuration(c.ETL.CacheTTL)
	return d
}

func parsePositiveDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be > 0")
	}
	return d, nil
}

// Load parses config from file + env and validates it.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":               8080,
		"server.host":               "0.0.0.0",
		"server.max_body_size_mb":   1,
		"server.mode":               "release",
		"database.dsn":              "",
		"database.max_open_conns":   25,
		"database.max_idle_conns":   25,
		"database.auto_migrate":     true,
		"cache.type":                "redis",
		"cache.addr":                "localhost:6379",
		"cache.password":            "",
		"cache.db":                  0,
		"auth.secret":               "",
		"auth.token_ttl":            "1h",
		"analytics.cache_ttl":       "60s",
		"analytics.top_users_limit": 3,
		"etl.enabled":               true,
		"etl.daily_interval":        "24h",
		"etl.quality_interval":      "6h",
		"etl.cache_ttl":             "1h",
		"etl.top_users_limit":       10,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("REVLENS_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "REVLENS_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
