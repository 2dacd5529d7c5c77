package config

import (
	"fmt"
	"os"
	"strings"
)

// Environment overrides for deployment knobs.
const (
	EnvProfileURL = "PODCAST_SYNC_PROFILE_URL"
	EnvStorePath  = "PODCAST_SYNC_STORE_PATH"
	EnvLogLevel   = "PODCAST_SYNC_LOG_LEVEL"
)

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvProfileURL)); v != "" {
		c.Provider.ProfileURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStorePath)); v != "" {
		c.Store.Path = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) normalize() error {
	c.normalizeProvider()
	if err := c.normalizeStore(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeProvider() {
	p := &c.Provider
	p.ProfileURL = strings.TrimSpace(p.ProfileURL)
	p.APIBase = strings.TrimRight(strings.TrimSpace(p.APIBase), "/")
	if p.APIBase == "" {
		p.APIBase = defaultAPIBase
	}
	p.FeedURL = strings.TrimSpace(p.FeedURL)
	p.UserAgent = strings.TrimSpace(p.UserAgent)
	p.FallbackTokens = compact(p.FallbackTokens)
	p.ScriptFragments = compact(p.ScriptFragments)
	if len(p.ScriptFragments) == 0 {
		p.ScriptFragments = append([]string(nil), defaultScriptFragments...)
	}
	if p.PageSize <= 0 {
		p.PageSize = defaultPageSize
	}
	if p.TimeoutSeconds <= 0 {
		p.TimeoutSeconds = defaultTimeoutSeconds
	}
}

func (c *Config) normalizeStore() error {
	s := &c.Store
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	if s.Backend == "" {
		s.Backend = BackendJSON
	}

	var err error
	if s.Path, err = expandPath(strings.TrimSpace(s.Path)); err != nil {
		return fmt.Errorf("store.path: %w", err)
	}
	if s.Path == "" {
		s.Path = defaultStorePath
	}
	if s.SQLitePath, err = expandPath(strings.TrimSpace(s.SQLitePath)); err != nil {
		return fmt.Errorf("store.sqlite_path: %w", err)
	}
	if s.SQLitePath == "" {
		s.SQLitePath = defaultSQLitePath
	}
	if strings.TrimSpace(s.MongoDatabase) == "" {
		s.MongoDatabase = defaultMongoDatabase
	}
	if strings.TrimSpace(s.MongoCollection) == "" {
		s.MongoCollection = defaultCollection
	}
	s.SupabaseURL = strings.TrimRight(strings.TrimSpace(s.SupabaseURL), "/")
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
