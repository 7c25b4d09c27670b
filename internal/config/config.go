// Package config loads roster configuration from YAML and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Gateway modes.
const (
	GatewayMock = "mock"
	GatewayHTTP = "http"
)

// Config holds roster configuration.
type Config struct {
	// LogLevel is a logrus level name.
	LogLevel string        `yaml:"log_level"`
	Gateway  GatewayConfig `yaml:"gateway"`
	Server   ServerConfig  `yaml:"server"`
}

// GatewayConfig selects and tunes the synchronization gateway.
type GatewayConfig struct {
	// Mode is "mock" or "http".
	Mode string `yaml:"mode"`
	// APIAddr is the backend base URL used in http mode.
	APIAddr string        `yaml:"api_addr"`
	Timeout time.Duration `yaml:"timeout"`
	Mock    MockConfig    `yaml:"mock"`
}

// MockConfig controls the simulated gateway.
type MockConfig struct {
	FetchTasksDelay        time.Duration `yaml:"fetch_tasks_delay"`
	FetchHousekeepersDelay time.Duration `yaml:"fetch_housekeepers_delay"`
	SubmitDelay            time.Duration `yaml:"submit_delay"`
	FailFetchTasks         bool          `yaml:"fail_fetch_tasks"`
	FailFetchHousekeepers  bool          `yaml:"fail_fetch_housekeepers"`
	FailSubmit             bool          `yaml:"fail_submit"`
}

// ServerConfig configures the development backend.
type ServerConfig struct {
	Listen string `yaml:"listen"`
	DBPath string `yaml:"db_path"`
	// RedisURL enables the read cache when set.
	RedisURL string        `yaml:"redis_url"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
	// Seed loads fixture data into an empty database.
	Seed bool `yaml:"seed"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	dbPath := "roster.db"
	if dir, err := Dir(); err == nil {
		dbPath = filepath.Join(dir, "roster.db")
	}
	return &Config{
		LogLevel: "info",
		Gateway: GatewayConfig{
			Mode:    GatewayMock,
			APIAddr: "http://127.0.0.1:7480",
			Timeout: 10 * time.Second,
			Mock: MockConfig{
				FetchTasksDelay:        500 * time.Millisecond,
				FetchHousekeepersDelay: 500 * time.Millisecond,
				SubmitDelay:            800 * time.Millisecond,
			},
		},
		Server: ServerConfig{
			Listen:   "127.0.0.1:7480",
			DBPath:   dbPath,
			CacheTTL: 5 * time.Minute,
			Seed:     true,
		},
	}
}

// Dir returns ~/.roster.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".roster"), nil
}

// LoadConfig loads configuration from a YAML file. A missing file yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadConfigFromHome loads configuration from ~/.roster/config.yaml.
func LoadConfigFromHome() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadConfig(filepath.Join(dir, "config.yaml"))
}

// SaveConfig writes cfg to path, creating parent directories if needed.
func SaveConfig(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from ROSTER_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("ROSTER_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("ROSTER_GATEWAY"); v != "" {
		c.Gateway.Mode = v
	}
	if v := os.Getenv("ROSTER_API"); v != "" {
		c.Gateway.APIAddr = v
	}
	if v := os.Getenv("ROSTER_LISTEN"); v != "" {
		c.Server.Listen = v
	}
	if v := os.Getenv("ROSTER_DB"); v != "" {
		c.Server.DBPath = v
	}
	if v := os.Getenv("ROSTER_REDIS_URL"); v != "" {
		c.Server.RedisURL = v
	}
	if v := os.Getenv("ROSTER_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return fmt.Errorf("invalid ROSTER_CACHE_TTL %q", v)
		}
		c.Server.CacheTTL = d
	}
	if v := os.Getenv("ROSTER_SEED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid ROSTER_SEED %q", v)
		}
		c.Server.Seed = b
	}
	return c.Validate()
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	switch c.Gateway.Mode {
	case GatewayMock, GatewayHTTP:
	default:
		return fmt.Errorf("invalid gateway mode %q, must be: mock or http", c.Gateway.Mode)
	}
	if c.Gateway.Mode == GatewayHTTP && c.Gateway.APIAddr == "" {
		return fmt.Errorf("gateway.api_addr is required in http mode")
	}
	m := c.Gateway.Mock
	if m.FetchTasksDelay < 0 || m.FetchHousekeepersDelay < 0 || m.SubmitDelay < 0 {
		return fmt.Errorf("mock delays must not be negative")
	}
	if c.Server.CacheTTL < 0 {
		return fmt.Errorf("server.cache_ttl must not be negative")
	}
	return nil
}
