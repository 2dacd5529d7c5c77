// Package config loads podcast-sync settings from TOML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DefaultFileName is looked up in the working directory when no path is given.
const DefaultFileName = "podcast-sync.toml"

// Provider contains settings for the upstream audio platform.
type Provider struct {
	ProfileURL      string   `toml:"profile_url"`
	APIBase         string   `toml:"api_base"`
	UserAgent       string   `toml:"user_agent"`
	FallbackTokens  []string `toml:"fallback_tokens"`
	ScriptFragments []string `toml:"script_fragments"`
	FeedURL         string   `toml:"feed_url"`
	PageSize        int      `toml:"page_size"`
	TimeoutSeconds  int      `toml:"timeout_seconds"`
}

// Store selects and configures the episode store backend.
type Store struct {
	Backend          string `toml:"backend"`
	Path             string `toml:"path"`
	MongoURI         string `toml:"mongo_uri"`
	MongoDatabase    string `toml:"mongo_database"`
	MongoCollection  string `toml:"mongo_collection"`
	PostgresDSN      string `toml:"postgres_dsn"`
	SupabaseURL      string `toml:"supabase_url"`
	SupabaseKey      string `toml:"supabase_key"`
	SupabasePassword string `toml:"supabase_password"`
	SQLitePath       string `toml:"sqlite_path"`

	// Connection pool limits for the postgres backend. Zero keeps the driver default.
	MaxOpenConns       int `toml:"max_open_conns"`
	MaxIdleConns       int `toml:"max_idle_conns"`
	ConnMaxIdleSeconds int `toml:"conn_max_idle_seconds"`
	ConnMaxLifeSeconds int `toml:"conn_max_life_seconds"`
}

// Logging contains logger settings.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the full application configuration.
type Config struct {
	Provider Provider `toml:"provider"`
	Store    Store    `toml:"store"`
	Logging  Logging  `toml:"logging"`
}

// Load locates, parses, and validates a configuration file. An explicit path that does not
// exist is an error; without a path the working directory is searched and defaults are used
// when nothing is found.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, fmt.Errorf("config file %s: %w", expanded, err)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	projectPath, err := filepath.Abs(DefaultFileName)
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return projectPath, false, nil
}

// Timeout returns the HTTP request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Provider.TimeoutSeconds) * time.Second
}

// Marshal renders the configuration as TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return "", nil
	}
	if pathValue == "~" || strings.HasPrefix(pathValue, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		pathValue = filepath.Join(home, strings.TrimPrefix(pathValue, "~"))
	}
	return filepath.Clean(pathValue), nil
}
