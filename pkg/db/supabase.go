package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	supabase "github.com/supabase-community/supabase-go"
)

// SupabaseConfig points the episode store at a Supabase project.
type SupabaseConfig struct {
	// ProjectURL looks like https://<project-ref>.supabase.co
	ProjectURL string
	// APIKey enables the REST client (service_role for writes).
	APIKey string
	// Password is the database password and enables the direct Postgres connection.
	Password string
	Pool     Pool
}

// SupabaseClient holds the direct database handle, the REST client, or both.
type SupabaseClient struct {
	cfg       SupabaseConfig
	db        *sql.DB
	rest      *supabase.Client
	directErr error
}

// NewSupabaseClient constructs a Supabase client. Call Connect before use.
func NewSupabaseClient(cfg SupabaseConfig) *SupabaseClient {
	return &SupabaseClient{cfg: cfg}
}

// Connect prepares whichever access paths the configuration allows. When both are
// configured and the direct connection fails, the client stays usable over REST and the
// failure is kept for DirectErr.
func (c *SupabaseClient) Connect(ctx context.Context) error {
	if c.cfg.ProjectURL == "" {
		return errors.New("supabase project URL is required")
	}
	if c.cfg.APIKey == "" && c.cfg.Password == "" {
		return errors.New("supabase needs a database password or an API key")
	}

	if c.cfg.APIKey != "" {
		rest, err := supabase.NewClient(c.cfg.ProjectURL, c.cfg.APIKey, nil)
		if err != nil {
			return fmt.Errorf("initialize supabase client: %w", err)
		}
		c.rest = rest
	}

	if c.cfg.Password == "" {
		return nil
	}
	dsn, err := directDSN(c.cfg.ProjectURL, c.cfg.Password)
	if err == nil {
		c.db, err = openPostgres(ctx, dsn, c.cfg.Pool)
	}
	if err != nil {
		if c.rest == nil {
			return fmt.Errorf("connect supabase database: %w", err)
		}
		c.directErr = err
	}
	return nil
}

// Close closes the direct connection if one was opened.
func (c *SupabaseClient) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// DB returns the direct handle, or nil in REST-only mode.
func (c *SupabaseClient) DB() *sql.DB {
	return c.db
}

// HasDirectDB reports whether the direct connection is available.
func (c *SupabaseClient) HasDirectDB() bool {
	return c.db != nil
}

// DirectErr is why the direct connection was skipped in favour of REST, if it was.
func (c *SupabaseClient) DirectErr() error {
	return c.directErr
}

// SDK returns the REST client, or nil when no API key was configured.
func (c *SupabaseClient) SDK() *supabase.Client {
	return c.rest
}

// directDSN derives the project's Postgres DSN. Pooled Supabase connections reject cached
// prepared statements, so statement caching is off and the simple protocol is used.
func directDSN(projectURL, password string) (string, error) {
	parsed, err := url.Parse(projectURL)
	if err != nil {
		return "", fmt.Errorf("parse supabase URL: %w", err)
	}
	ref, _, ok := strings.Cut(parsed.Hostname(), ".")
	if !ok || ref == "" {
		return "", fmt.Errorf("supabase URL %q: expected <project-ref>.supabase.co", projectURL)
	}

	query := url.Values{}
	query.Set("sslmode", "require")
	query.Set("statement_cache_capacity", "0")
	query.Set("default_query_exec_mode", "simple_protocol")
	dsn := url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword("postgres", password),
		Host:     "db." + ref + ".supabase.co:5432",
		Path:     "/postgres",
		RawQuery: query.Encode(),
	}
	return dsn.String(), nil
}
