// Package config defines the planner server configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers. Both keep data in process memory only.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config is the top-level planner configuration.
type Config struct {
	Server     ServerConfig  `json:"server" yaml:"server"`
	Storage    StorageConfig `json:"storage" yaml:"storage"`
	LogLevel   string        `json:"log_level" yaml:"log_level"`
	LogFormat  string        `json:"log_format" yaml:"log_format"` // "text" or "json"
	SeedAgents []AgentConfig `json:"seed_agents,omitempty" yaml:"seed_agents"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Addr            string        `json:"addr" yaml:"addr"` // listen address, e.g., ":9090"
	EnableReset     bool          `json:"enable_reset" yaml:"enable_reset"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// StorageConfig selects the store backend.
type StorageConfig struct {
	Driver string `json:"driver" yaml:"driver"`
}

// AgentConfig is an agent registered at startup.
type AgentConfig struct {
	Name string `json:"name" yaml:"name"`
	Role string `json:"role" yaml:"role"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":9090",
			ShutdownTimeout: 10 * time.Second,
		},
		Storage:   StorageConfig{Driver: DriverMemory},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads a YAML config file and returns the parsed configuration.
// Environment overrides are applied on top and the result is validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault loads path when it exists and falls back to DefaultConfig otherwise.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.ApplyEnv(os.LookupEnv)
		return cfg, cfg.Validate()
	}
	return Load(path)
}

// ApplyEnv overrides fields from PLANNER_* variables found through lookup.
// Unparseable values are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("PLANNER_ADDR"); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup("PLANNER_STORAGE"); ok && v != "" {
		c.Storage.Driver = v
	}
	if v, ok := lookup("PLANNER_LOG_LEVEL"); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup("PLANNER_LOG_FORMAT"); ok && v != "" {
		c.LogFormat = v
	}
	if v, ok := lookup("PLANNER_ENABLE_RESET"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Server.EnableReset = b
		}
	}
}

// Validate rejects unknown enum values.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverSQLite:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	for i, a := range c.SeedAgents {
		if strings.TrimSpace(a.Name) == "" || strings.TrimSpace(a.Role) == "" {
			return fmt.Errorf("seed_agents[%d]: name and role are required", i)
		}
	}
	return nil
}
