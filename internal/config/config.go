// Package config loads the application configuration from YAML with
// environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"

	"github.com/roach88/ziwei/internal/store"
)

// Keyring entry holding the LLM API key.
const (
	KeyringService = "com.github.roach88.ziwei"
	KeyringUser    = "openai-api-key"
)

// Environment overrides.
const (
	EnvBaseURL = "OPENAI_BASE_URL"
	EnvAPIKey  = "OPENAI_API_KEY"
	EnvModel   = "OPENAI_MODEL"
	EnvPort    = "PORT"
)

// Config is the application configuration.
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Proxy       ProxyConfig       `yaml:"proxy"`
	Storage     StorageConfig     `yaml:"storage"`
	Log         LogConfig         `yaml:"log"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Chart       ChartConfig       `yaml:"chart"`
}

// LLMConfig is the upstream OpenAI-compatible endpoint.
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	// Timeout is a Go duration string, e.g. "60s".
	Timeout string `yaml:"timeout"`
}

// ProxyConfig covers both ends of /api/interpret: BaseURL is where clients
// send requests, Port is where serve listens.
type ProxyConfig struct {
	BaseURL string `yaml:"base_url"`
	Port    int    `yaml:"port"`
	Timeout string `yaml:"timeout"`
}

// StorageConfig selects the durable backend.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	// Target is the SQLite path or Postgres DSN.
	Target string `yaml:"target"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConcurrencyConfig throttles direct LLM calls: at most RPM requests per
// minute (zero means unlimited), with up to Burst sent back to back.
type ConcurrencyConfig struct {
	RPM   int `yaml:"rpm"`
	Burst int `yaml:"burst"`
}

// ChartConfig controls chart resolution.
type ChartConfig struct {
	// TimeZone is the IANA zone birth times are interpreted in.
	TimeZone string `yaml:"time_zone"`
	// Fixtures optionally replaces the built-in astrolabe fixtures.
	Fixtures string `yaml:"fixtures"`
}

// Default returns the configuration used for absent fields.
func Default() *Config {
	return &Config{
		LLM:         LLMConfig{Model: "gpt-4o-mini", Timeout: "120s"},
		Proxy:       ProxyConfig{Port: 3088, Timeout: "120s"},
		Storage:     StorageConfig{Driver: store.DriverSQLite, Target: "ziwei.db"},
		Log:         LogConfig{Level: "info"},
		Concurrency: ConcurrencyConfig{RPM: 20, Burst: 1},
		Chart:       ChartConfig{TimeZone: "Local"},
	}
}

// LoadConfig reads path over Default. An empty path or a missing file
// yields Default; environment overrides apply either way.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := decode(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv(EnvModel); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("invalid %s %q", EnvPort, v)
		}
		c.Proxy.Port = port
	}
	return nil
}

// APIKey returns the configured key, falling back to the OS keyring.
// A missing keyring entry yields "".
func (c *Config) APIKey() (string, error) {
	if c.LLM.APIKey != "" {
		return c.LLM.APIKey, nil
	}
	key, err := keyring.Get(KeyringService, KeyringUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read keyring: %w", err)
	}
	return strings.TrimSpace(key), nil
}

// StoreAPIKey saves key in the OS keyring.
func StoreAPIKey(key string) error {
	if err := keyring.Set(KeyringService, KeyringUser, strings.TrimSpace(key)); err != nil {
		return fmt.Errorf("write keyring: %w", err)
	}
	return nil
}

// Location resolves Chart.TimeZone.
func (c *Config) Location() (*time.Location, error) {
	switch c.Chart.TimeZone {
	case "", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Chart.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("time zone %q: %w", c.Chart.TimeZone, err)
	}
	return loc, nil
}

// Addr is the serve listen address.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Proxy.Port)
}

// LLMTimeout parses LLM.Timeout; empty means none.
func (c *Config) LLMTimeout() (time.Duration, error) {
	return parseDuration("llm.timeout", c.LLM.Timeout)
}

// ProxyTimeout parses Proxy.Timeout; empty means none.
func (c *Config) ProxyTimeout() (time.Duration, error) {
	return parseDuration("proxy.timeout", c.Proxy.Timeout)
}

func parseDuration(field, v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}
