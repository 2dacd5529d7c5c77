package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"podcast-sync/pkg/config"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "podcast-sync.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	// t.Chdir requires Go 1.24; restore the working directory manually.
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv(config.EnvProfileURL, "")
	t.Setenv(config.EnvStorePath, "")
	t.Setenv(config.EnvLogLevel, "")

	cfg, _, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected exists to be false")
	}
	if cfg.Store.Backend != config.BackendJSON {
		t.Fatalf("backend = %q", cfg.Store.Backend)
	}
	if cfg.Store.Path != "data/episodes.json" {
		t.Fatalf("store path = %q", cfg.Store.Path)
	}
	if cfg.Provider.PageSize != 200 {
		t.Fatalf("page size = %d", cfg.Provider.PageSize)
	}
	if len(cfg.Provider.ScriptFragments) != 4 {
		t.Fatalf("script fragments = %v", cfg.Provider.ScriptFragments)
	}
	if err := cfg.RequireProfile(); err == nil {
		t.Fatal("expected RequireProfile to fail without profile url")
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Setenv(config.EnvProfileURL, "")
	t.Setenv(config.EnvStorePath, "")
	t.Setenv(config.EnvLogLevel, "")
	path := writeConfig(t, t.TempDir(), `
[provider]
profile_url = "https://soundcloud.com/some-show"
fallback_tokens = ["  abc  ", ""]
feed_url = "https://feeds.example.com/show.rss"
timeout_seconds = 5

[store]
backend = "SQLite"
sqlite_path = "/tmp/eps.db"

[logging]
level = "DEBUG"
format = "json"
`)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("unexpected resolution: %q %v", resolved, exists)
	}
	if cfg.Provider.ProfileURL != "https://soundcloud.com/some-show" {
		t.Fatalf("profile url = %q", cfg.Provider.ProfileURL)
	}
	if len(cfg.Provider.FallbackTokens) != 1 || cfg.Provider.FallbackTokens[0] != "abc" {
		t.Fatalf("fallback tokens = %q", cfg.Provider.FallbackTokens)
	}
	if cfg.Store.Backend != config.BackendSQLite || cfg.Store.SQLitePath != "/tmp/eps.db" {
		t.Fatalf("store = %+v", cfg.Store)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("logging = %+v", cfg.Logging)
	}
	if cfg.Timeout().Seconds() != 5 {
		t.Fatalf("timeout = %v", cfg.Timeout())
	}
	if cfg.Provider.APIBase != "https://api-v2.soundcloud.com" {
		t.Fatalf("api base = %q", cfg.Provider.APIBase)
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	if _, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
[provider]
profile_url = "https://soundcloud.com/from-file"
`)
	t.Setenv(config.EnvProfileURL, "https://soundcloud.com/from-env")
	t.Setenv(config.EnvStorePath, "/var/lib/podcast/episodes.json")
	t.Setenv(config.EnvLogLevel, "warn")

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Provider.ProfileURL != "https://soundcloud.com/from-env" {
		t.Fatalf("profile url = %q", cfg.Provider.ProfileURL)
	}
	if cfg.Store.Path != "/var/lib/podcast/episodes.json" {
		t.Fatalf("store path = %q", cfg.Store.Path)
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("log level = %q", cfg.Logging.Level)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"bad backend":       func(c *config.Config) { c.Store.Backend = "redis" },
		"mongo without uri": func(c *config.Config) { c.Store.Backend = config.BackendMongo },
		"postgres no dsn":   func(c *config.Config) { c.Store.Backend = config.BackendPostgres },
		"bad profile":       func(c *config.Config) { c.Provider.ProfileURL = "ftp://x" },
		"page size":         func(c *config.Config) { c.Provider.PageSize = 500 },
		"log format":        func(c *config.Config) { c.Logging.Format = "xml" },
		"negative pool":     func(c *config.Config) { c.Store.MaxOpenConns = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	cfg.Store.Backend = config.BackendPostgres
	cfg.Store.SupabaseURL = "https://abcd.supabase.co"
	cfg.Store.SupabasePassword = "secret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("supabase config should validate: %v", err)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := config.Default()
	data, err := cfg.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), "backend") || !strings.Contains(string(data), "json") {
		t.Fatalf("unexpected toml:\n%s", data)
	}
}
