package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateProvider(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	return c.validateLogging()
}

// RequireProfile reports an error when no profile URL is configured. Only commands
// that talk to the provider need one.
func (c *Config) RequireProfile() error {
	if c.Provider.ProfileURL == "" {
		return fmt.Errorf("provider.profile_url is required (or set %s)", EnvProfileURL)
	}
	return nil
}

func (c *Config) validateProvider() error {
	if c.Provider.ProfileURL != "" {
		if err := validateHTTPURL(c.Provider.ProfileURL); err != nil {
			return fmt.Errorf("provider.profile_url: %w", err)
		}
	}
	if err := validateHTTPURL(c.Provider.APIBase); err != nil {
		return fmt.Errorf("provider.api_base: %w", err)
	}
	if c.Provider.FeedURL != "" {
		if err := validateHTTPURL(c.Provider.FeedURL); err != nil {
			return fmt.Errorf("provider.feed_url: %w", err)
		}
	}
	if c.Provider.PageSize > 200 {
		return fmt.Errorf("provider.page_size must be at most 200, got %d", c.Provider.PageSize)
	}
	return nil
}

func (c *Config) validateStore() error {
	s := c.Store
	if s.MaxOpenConns < 0 || s.MaxIdleConns < 0 || s.ConnMaxIdleSeconds < 0 || s.ConnMaxLifeSeconds < 0 {
		return errors.New("store connection pool settings must not be negative")
	}
	switch s.Backend {
	case BackendJSON:
		return nil
	case BackendSQLite:
		return nil
	case BackendMongo:
		if s.MongoURI == "" {
			return errors.New("store.mongo_uri is required for the mongo backend")
		}
		return nil
	case BackendPostgres:
		if s.PostgresDSN == "" && (s.SupabaseURL == "" || (s.SupabasePassword == "" && s.SupabaseKey == "")) {
			return errors.New("store.postgres_dsn, or store.supabase_url with store.supabase_password or store.supabase_key, is required for the postgres backend")
		}
		if s.SupabaseURL != "" {
			if err := validateHTTPURL(s.SupabaseURL); err != nil {
				return fmt.Errorf("store.supabase_url: %w", err)
			}
		}
		return nil
	default:
		return fmt.Errorf("store.backend: unsupported value %q", s.Backend)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
