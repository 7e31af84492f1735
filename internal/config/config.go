// Package config assembles the server configuration from the environment, an
// optional YAML file and command-line overrides.
//
// Precedence, highest first: flags, environment, file, defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"
)

const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// ErrMissingToken is returned by Validate when no bot token was configured.
var ErrMissingToken = errors.New("DISCORD_TOKEN environment variable is required")

// Config is the resolved configuration.
type Config struct {
	Token       string
	LogLevel    string
	LogFormat   string
	ConfigFile  string
	MetricsAddr string
	// DisabledTools names commands removed from the catalog.
	DisabledTools []string
	// Instructions is sent to clients in the initialize result.
	Instructions string
}

// Overrides carries values given on the command line. Empty fields are
// treated as unset.
type Overrides struct {
	ConfigFile    string
	LogLevel      string
	LogFormat     string
	MetricsAddr   string
	DisabledTools []string
}

type environment struct {
	Token       string `env:"DISCORD_TOKEN"`
	LegacyToken string `env:"ALFRED_DISCORD_BOT_TOKEN"`
	LogLevel    string `env:"DISCORD_MCP_LOG_LEVEL"`
	LogFormat   string `env:"DISCORD_MCP_LOG_FORMAT"`
	ConfigFile  string `env:"DISCORD_MCP_CONFIG"`
	MetricsAddr string `env:"DISCORD_MCP_METRICS_ADDR"`
}

// File is the YAML file layout.
type File struct {
	LogLevel      string   `yaml:"log_level"`
	LogFormat     string   `yaml:"log_format"`
	MetricsAddr   string   `yaml:"metrics_addr"`
	DisabledTools []string `yaml:"disabled_tools"`
	Instructions  string   `yaml:"instructions"`
}

// Load resolves the configuration and validates it.
func Load(o Overrides) (*Config, error) {
	var env environment
	if err := envdecode.Decode(&env); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	cfg := &Config{
		LogLevel:   DefaultLogLevel,
		LogFormat:  DefaultLogFormat,
		Token:      first(env.Token, env.LegacyToken),
		ConfigFile: first(o.ConfigFile, env.ConfigFile),
	}

	if cfg.ConfigFile != "" {
		f, err := ReadFile(cfg.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg.LogLevel = first(f.LogLevel, cfg.LogLevel)
		cfg.LogFormat = first(f.LogFormat, cfg.LogFormat)
		cfg.MetricsAddr = f.MetricsAddr
		cfg.DisabledTools = f.DisabledTools
		cfg.Instructions = f.Instructions
	}

	cfg.LogLevel = first(o.LogLevel, env.LogLevel, cfg.LogLevel)
	cfg.LogFormat = first(o.LogFormat, env.LogFormat, cfg.LogFormat)
	cfg.MetricsAddr = first(o.MetricsAddr, env.MetricsAddr, cfg.MetricsAddr)
	if len(o.DisabledTools) > 0 {
		cfg.DisabledTools = o.DisabledTools
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReadFile parses the YAML configuration file at path.
func ReadFile(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return &f, nil
}

// Validate reports the first problem with c.
func (c *Config) Validate() error {
	if c.Token == "" {
		return ErrMissingToken
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q: expected text or json", c.LogFormat)
	}
	return nil
}

// ParseLevel accepts debug, info, warn or error in any case.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	switch strings.ToLower(s) {
	case "debug", "info", "warn", "error":
		if err := l.UnmarshalText([]byte(s)); err != nil {
			return 0, err
		}
		return l, nil
	}
	return 0, fmt.Errorf("invalid log level %q: expected debug, info, warn or error", s)
}

func first(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
