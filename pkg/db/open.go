package db

import (
	"context"
	"fmt"

	"podcast-sync/pkg/config"

	"go.uber.org/zap"
)

// Open builds and connects the episode store selected by cfg.Backend.
func Open(ctx context.Context, cfg config.Store, opts ...Option) (EpisodeStore, error) {
	switch cfg.Backend {
	case config.BackendJSON, "":
		return NewJSONStore(cfg.Path, opts...)

	case config.BackendSQLite:
		return NewSQLiteStore(ctx, cfg.SQLitePath, opts...)

	case config.BackendMongo:
		store := NewMongoStore(cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection, opts...)
		if err := store.Connect(ctx); err != nil {
			_ = store.Close(ctx)
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		return store, nil

	case config.BackendPostgres:
		if cfg.PostgresDSN != "" {
			client := NewPostgresClient(PostgresConfig{DSN: cfg.PostgresDSN, Pool: PoolFromConfig(cfg)})
			if err := client.Connect(ctx); err != nil {
				return nil, err
			}
			store, err := NewPostgresStore(ctx, client, opts...)
			if err != nil {
				_ = client.Close()
				return nil, err
			}
			return store, nil
		}
		return openSupabase(ctx, cfg, opts)

	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Backend)
	}
}

func openSupabase(ctx context.Context, cfg config.Store, opts []Option) (EpisodeStore, error) {
	client := NewSupabaseClient(SupabaseConfig{
		ProjectURL: cfg.SupabaseURL,
		APIKey:     cfg.SupabaseKey,
		Password:   cfg.SupabasePassword,
		Pool:       PoolFromConfig(cfg),
	})
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect supabase: %w", err)
	}

	if client.HasDirectDB() {
		store, err := NewPostgresStore(ctx, client, opts...)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		return store, nil
	}

	o := buildOptions("supabase_store", opts)
	if err := client.DirectErr(); err != nil {
		o.logger.Warn("supabase direct connection failed, using REST API", zap.Error(err))
	} else {
		o.logger.Info("no supabase database password configured, using REST API")
	}
	store, err := NewSupabaseRESTStore(client, opts...)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return store, nil
}

// Describe returns log fields that identify the selected backend without credentials
func Describe(cfg config.Store) []zap.Field {
	fields := []zap.Field{zap.String("backend", cfg.Backend)}
	switch cfg.Backend {
	case config.BackendJSON, "":
		fields = append(fields, zap.String("path", cfg.Path))
	case config.BackendSQLite:
		fields = append(fields, zap.String("path", cfg.SQLitePath))
	case config.BackendMongo:
		fields = append(fields, zap.String("database", cfg.MongoDatabase), zap.String("collection", cfg.MongoCollection))
	case config.BackendPostgres:
		if cfg.SupabaseURL != "" && cfg.PostgresDSN == "" {
			fields = append(fields, zap.String("supabase_url", cfg.SupabaseURL))
		}
	}
	return fields
}
