package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "250ms" decode
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the full application configuration, loaded from a per-env
// YAML file with environment variable overrides for secrets.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	JWT      JWTConfig      `yaml:"jwt"`
	Importer ImporterConfig `yaml:"importer"`
}

// ServerConfig HTTP server settings
type ServerConfig struct {
	Port int      `yaml:"port"`
	Env  string   `yaml:"env"`
	CORS []string `yaml:"cors_origins"`
}

// DatabaseConfig MySQL settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// RedisConfig redis settings
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// JWTConfig token settings
type JWTConfig struct {
	Secret      string   `yaml:"secret"`
	TokenExpiry Duration `yaml:"token_expiry"`
}

// ImporterConfig controls the journal import pipeline.
//
// KnownAccounts maps canonical origin account names to internal user IDs
// for the hand-curated house accounts whose origin username matches no
// character screenname. It is injected configuration rather than a
// compiled-in table so it can be extended without a deploy.
type ImporterConfig struct {
	// OriginHost is the journal platform threads are scraped from.
	OriginHost string `yaml:"origin_host"`
	// IconHost resolves host-relative userpic URLs to absolute ones.
	IconHost string `yaml:"icon_host"`

	Throttle     Duration `yaml:"throttle"`
	RetryDelay   Duration `yaml:"retry_delay"`
	FetchTimeout Duration `yaml:"fetch_timeout"`
	MaxRetries   int      `yaml:"max_retries"`
	UserAgent    string   `yaml:"user_agent"`

	KnownAccounts map[string]int64 `yaml:"known_accounts"`
	// LegacyKeywordPrefixes maps an origin username to the keyword
	// prefix that account historically prepended to its icon keywords.
	LegacyKeywordPrefixes map[string]string `yaml:"legacy_keyword_prefixes"`

	QueueKey string `yaml:"queue_key"`
}

// Load reads configuration from path and applies env overrides
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	// Secrets come from the environment when set
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, Env: "local"},
		Redis:  RedisConfig{Host: "localhost", Port: 6379, PoolSize: 10},
		JWT:    JWTConfig{TokenExpiry: Duration(24 * time.Hour)},
		Importer: ImporterConfig{
			OriginHost:   "dreamwidth.org",
			IconHost:     "www.dreamwidth.org",
			Throttle:     Duration(250 * time.Millisecond),
			RetryDelay:   Duration(2 * time.Second),
			FetchTimeout: Duration(30 * time.Second),
			MaxRetries:   3,
			UserAgent:    "storyloom-importer/1.0",
			QueueKey:     "storyloom:import:jobs",
		},
	}
}

// DSN builds the MySQL connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.User, d.Password, d.Host, d.Port, d.Name)
}
