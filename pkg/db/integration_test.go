package db

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"
)

// These tests need a live server and are skipped unless the matching variable is set.

func TestMongoStore_Integration(t *testing.T) {
	uri := os.Getenv("PODCAST_SYNC_TEST_MONGO_URI")
	if uri == "" || testing.Short() {
		t.Skip("PODCAST_SYNC_TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	collection := fmt.Sprintf("episodes_test_%d", time.Now().UnixNano())
	store := NewMongoStore(uri, "podcast_sync_test", collection, WithClock(stepClock()))
	if err := store.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer func() {
		_ = store.collection.Drop(ctx)
		_ = store.Close(ctx)
	}()

	exerciseStore(t, store)
}

func TestPostgresStore_Integration(t *testing.T) {
	dsn := os.Getenv("PODCAST_SYNC_TEST_POSTGRES_DSN")
	if dsn == "" || testing.Short() {
		t.Skip("PODCAST_SYNC_TEST_POSTGRES_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := NewPostgresClient(PostgresConfig{DSN: dsn})
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	store, err := NewPostgresStore(ctx, client, WithClock(stepClock()))
	if err != nil {
		t.Fatalf("NewPostgresStore: %v", err)
	}
	defer store.Close(ctx)
	if _, err := client.DB().ExecContext(ctx, "DELETE FROM episodes WHERE id IN (7, 42)"); err != nil {
		t.Fatalf("reset table: %v", err)
	}

	exerciseStore(t, store)
}
