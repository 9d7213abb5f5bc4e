package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RATEROOM_"

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" envPrefix:"SERVER_"`
	Store     StoreConfig     `yaml:"store" envPrefix:"STORE_"`
	Log       LogConfig       `yaml:"log" envPrefix:"LOG_"`
	Transport TransportConfig `yaml:"transport" envPrefix:"TRANSPORT_"`
	Auth      AuthConfig      `yaml:"auth" envPrefix:"AUTH_"`
	Session   SessionConfig   `yaml:"session" envPrefix:"SESSION_"`
}

type ServerConfig struct {
	Host string `yaml:"host" env:"HOST"`
	Port int    `yaml:"port" env:"PORT"`
}

// StoreConfig selects the persistence backend. Driver is "sqlite" or "bolt".
type StoreConfig struct {
	Driver string `yaml:"driver" env:"DRIVER"`
	Path   string `yaml:"path" env:"PATH"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
	Path  string `yaml:"path" env:"PATH"`
}

// TransportConfig selects how the MCP server is exposed: "http" also serves
// the REST API, "stdio" runs the MCP server alone on stdin/stdout.
type TransportConfig struct {
	Mode string `yaml:"mode" env:"MODE"`
}

type AuthConfig struct {
	Enabled      bool          `yaml:"enabled" env:"ENABLED"`
	HostPassword string        `yaml:"host_password" env:"HOST_PASSWORD"`
	TokenTTL     time.Duration `yaml:"token_ttl" env:"TOKEN_TTL"`
}

type SessionConfig struct {
	AuthorizedActors          []string      `yaml:"authorized_actors" env:"AUTHORIZED_ACTORS" envSeparator:","`
	LiveTTL                   time.Duration `yaml:"live_ttl" env:"LIVE_TTL"`
	DefaultExpectedAttendance int           `yaml:"default_expected_attendance" env:"DEFAULT_EXPECTED_ATTENDANCE"`
	DefaultTimer              int           `yaml:"default_timer" env:"DEFAULT_TIMER"`
	PurgeInterval             time.Duration `yaml:"purge_interval" env:"PURGE_INTERVAL"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Store: StoreConfig{
			Driver: "sqlite",
			Path:   "rateroom.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		Auth: AuthConfig{
			Enabled:  true,
			TokenTTL: 12 * time.Hour,
		},
		Session: SessionConfig{
			LiveTTL:                   24 * time.Hour,
			DefaultExpectedAttendance: 10,
			DefaultTimer:              60,
			PurgeInterval:             10 * time.Minute,
		},
	}
}

// Load reads configuration from defaults, an optional .env file, an optional
// YAML file and environment variables, in that order.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path := os.Getenv(EnvPrefix + "CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite", "bolt":
	default:
		return fmt.Errorf("invalid store driver %q", c.Store.Driver)
	}
	switch c.Transport.Mode {
	case "http", "stdio":
	default:
		return fmt.Errorf("invalid transport mode %q", c.Transport.Mode)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Session.DefaultExpectedAttendance < 1 {
		return fmt.Errorf("default expected attendance must be positive")
	}
	if c.Session.DefaultTimer < 0 {
		return fmt.Errorf("default timer cannot be negative")
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
