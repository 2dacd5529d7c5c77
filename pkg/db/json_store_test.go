package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"podcast-sync/pkg/domain"
)

// stepClock returns a clock that advances one minute on every call
func stepClock() func() time.Time {
	current := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		current = current.Add(time.Minute)
		return current
	}
}

func sampleEpisode(id int64) domain.Episode {
	stream := fmt.Sprintf("https://cdn.example.com/%d.mp3", id)
	return domain.NewEpisode(domain.Item{
		ID:           id,
		Title:        "Episode",
		Description:  "(00:01:00) Intro",
		Duration:     61000,
		CreatedAt:    time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
		PermalinkURL: "https://example.com/show/episode",
	}, &stream, nil, []domain.Chapter{{Start: "00:01:00", Title: "Intro"}})
}

// exerciseStore runs the behaviour every EpisodeStore implementation shares
func exerciseStore(t *testing.T, store EpisodeStore) {
	t.Helper()
	ctx := context.Background()

	ep := sampleEpisode(42)
	id, err := store.Upsert(ctx, ep.Record())
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if id != 42 {
		t.Fatalf("Upsert returned id %d", id)
	}

	first, err := store.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if first.Title != "Episode" || first.StreamURL == nil || len(first.Chapters) != 1 {
		t.Fatalf("unexpected stored episode: %+v", first)
	}
	if first.CreatedDate.IsZero() || !first.CreatedDate.Equal(first.UpdatedDate) {
		t.Fatalf("insert should set both dates equal: created=%v updated=%v", first.CreatedDate, first.UpdatedDate)
	}

	// partial record only replaces the keys it carries
	if _, err := store.Upsert(ctx, domain.Record{"id": int64(42), "title": "Renamed"}); err != nil {
		t.Fatalf("partial Upsert: %v", err)
	}
	second, err := store.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get after partial: %v", err)
	}
	if second.Title != "Renamed" || second.Description != "(00:01:00) Intro" || second.DurationFormatted != "1:01" {
		t.Fatalf("partial merge lost fields: %+v", second)
	}
	if !second.CreatedDate.Equal(first.CreatedDate) {
		t.Fatalf("created_date changed: %v -> %v", first.CreatedDate, second.CreatedDate)
	}
	if !second.UpdatedDate.After(first.UpdatedDate) {
		t.Fatalf("updated_date did not advance: %v -> %v", first.UpdatedDate, second.UpdatedDate)
	}

	// a full record with nulls clears the nullable fields
	cleared := ep
	cleared.StreamURL = nil
	cleared.Chapters = nil
	if _, err := store.Upsert(ctx, cleared.Record()); err != nil {
		t.Fatalf("Upsert cleared: %v", err)
	}
	third, err := store.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get cleared: %v", err)
	}
	if third.StreamURL != nil || third.Chapters != nil || third.Title != "Episode" {
		t.Fatalf("nullable fields not overwritten: %+v", third)
	}

	if _, err := store.Upsert(ctx, sampleEpisode(7).Record()); err != nil {
		t.Fatalf("Upsert second episode: %v", err)
	}
	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("List returned %d episodes", len(list))
	}

	if _, err := store.Get(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing: expected ErrNotFound, got %v", err)
	}
	if _, err := store.Upsert(ctx, domain.Record{"title": "no id"}); err == nil {
		t.Fatal("Upsert without id should fail")
	}
}

func TestJSONStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "episodes.json")
	store, err := NewJSONStore(path, WithClock(stepClock()))
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}
	defer store.Close(context.Background())

	exerciseStore(t, store)

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("document not written: %v", err)
	}
	list, _ := store.List(context.Background())
	if list[0].ID != 42 || list[1].ID != 7 {
		t.Fatalf("List should keep insertion order, got %d, %d", list[0].ID, list[1].ID)
	}
}

func TestJSONStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "episodes.json")

	store, err := NewJSONStore(path)
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}
	if _, err := store.Upsert(ctx, sampleEpisode(1).Record()); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := store.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewJSONStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close(ctx)
	got, err := reopened.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if !got.CreatedAt.Equal(time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)) {
		t.Fatalf("createdAt not preserved: %v", got.CreatedAt)
	}
}

func TestJSONStore_Locked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "episodes.json")
	first, err := NewJSONStore(path)
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}
	defer first.Close(context.Background())

	if _, err := NewJSONStore(path); !errors.Is(err, ErrStoreLocked) {
		t.Fatalf("expected ErrStoreLocked, got %v", err)
	}
}

func TestJSONStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "episodes.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewJSONStore(path); !errors.Is(err, ErrStorageCorrupt) {
		t.Fatalf("expected ErrStorageCorrupt, got %v", err)
	}
}

func TestJSONStore_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "episodes.json")
	if err := os.WriteFile(path, []byte("  \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	store, err := NewJSONStore(path)
	if err != nil {
		t.Fatalf("empty file should open: %v", err)
	}
	defer store.Close(context.Background())
	list, err := store.List(context.Background())
	if err != nil || len(list) != 0 {
		t.Fatalf("List = %v, %v", list, err)
	}
}

func TestMergeRecord(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := created.Add(time.Hour)
	existing := domain.Record{"id": int64(1), "title": "old", "streamUrl": "x", domain.KeyCreatedDate: created}

	merged := mergeRecord(existing, domain.Record{"id": 1.0, "title": "new", domain.KeyCreatedDate: now}, 1, now)
	if merged["title"] != "new" || merged["streamUrl"] != "x" {
		t.Fatalf("unexpected merge: %v", merged)
	}
	if merged[domain.KeyCreatedDate] != created {
		t.Fatalf("incoming created_date must be ignored: %v", merged[domain.KeyCreatedDate])
	}
	if merged[domain.KeyUpdatedDate] != now {
		t.Fatalf("updated_date = %v", merged[domain.KeyUpdatedDate])
	}
	if merged["id"] != int64(1) {
		t.Fatalf("id not normalized: %T", merged["id"])
	}
	if existing["title"] != "old" {
		t.Fatal("existing record mutated")
	}
}
