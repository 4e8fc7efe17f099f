package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvAPIKey is the environment variable consulted when no key flag is given.
const EnvAPIKey = "JPDB_API_KEY"

// apiKeyFileName is the per-user key file looked up in the home directory.
const apiKeyFileName = ".jpdb_api_key"

// Config holds tunables that rarely change between runs. Values come from
// ~/.config/jpdbdeck/config.yaml when present, otherwise defaults.
type Config struct {
	BaseURL         string `yaml:"base_url"`
	ChunkSize       int    `yaml:"chunk_size"`
	ChunkPauseMs    int    `yaml:"chunk_pause_ms"`
	SentencePauseMs int    `yaml:"sentence_pause_ms"`
	HistoryPath     string `yaml:"history_path"`
}

// Load reads the config file at path; a missing file yields defaults.
// A .env file in the working directory is loaded first so JPDB_API_KEY can
// live there.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyDefaults(cfg)
	return cfg, nil
}

// DefaultPath returns ~/.config/jpdbdeck/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "jpdbdeck", "config.yaml"), nil
}

func defaultConfig() *Config {
	return &Config{
		BaseURL:         "https://jpdb.io",
		ChunkSize:       5000,
		ChunkPauseMs:    300,
		SentencePauseMs: 500,
	}
}

func applyDefaults(cfg *Config) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://jpdb.io"
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 5000
	}
	if cfg.ChunkPauseMs < 0 {
		cfg.ChunkPauseMs = 0
	}
	if cfg.SentencePauseMs < 0 {
		cfg.SentencePauseMs = 0
	}
}

// ChunkPause returns the delay between chunk parse requests.
func (c *Config) ChunkPause() time.Duration {
	return time.Duration(c.ChunkPauseMs) * time.Millisecond
}

// SentencePause returns the delay inserted between batches of sentence-setting calls.
func (c *Config) SentencePause() time.Duration {
	return time.Duration(c.SentencePauseMs) * time.Millisecond
}

// ResolveAPIKey picks the API key once at startup: explicit flag value, then
// the JPDB_API_KEY environment variable, then ~/.jpdb_api_key. The first
// non-empty value wins; an empty result means no key is configured.
func ResolveAPIKey(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(home, apiKeyFileName))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
