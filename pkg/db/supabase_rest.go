package db

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"podcast-sync/pkg/domain"

	"go.uber.org/zap"
)

const episodesTable = "episodes"

// supabaseRow mirrors the episodes table as PostgREST returns it
type supabaseRow struct {
	ID          int64           `json:"id"`
	Doc         json.RawMessage `json:"doc"`
	CreatedDate time.Time       `json:"created_date"`
	UpdatedDate time.Time       `json:"updated_date"`
}

// SupabaseRESTStore talks to the episodes table through the Supabase REST API. It is
// used when only a project URL and key are configured. The table must already exist with
// the same layout the SQL store creates. Merges happen client side, so two concurrent
// writers of the same id can lose fields.
type SupabaseRESTStore struct {
	client *SupabaseClient
	opts   storeOptions
}

// NewSupabaseRESTStore returns a REST-backed store on a connected client
func NewSupabaseRESTStore(client *SupabaseClient, opts ...Option) (*SupabaseRESTStore, error) {
	if client.SDK() == nil {
		return nil, fmt.Errorf("supabase store: REST client not initialized (supabase_url and supabase_key are required)")
	}
	store := &SupabaseRESTStore{client: client, opts: buildOptions("supabase_store", opts)}
	if err := store.checkTable(); err != nil {
		return nil, err
	}
	return store, nil
}

// checkTable fails early when the episodes table is missing or not readable with the key.
// REST mode cannot run DDL, so the table has to be created with the SQL store's schema first.
func (s *SupabaseRESTStore) checkTable() error {
	var rows []struct {
		ID int64 `json:"id"`
	}
	if _, err := s.client.SDK().From(episodesTable).Select("id", "", false).Limit(1, "").ExecuteTo(&rows); err != nil {
		return fmt.Errorf("supabase store: table %q unavailable: %w", episodesTable, err)
	}
	return nil
}

// Upsert merges rec into the row with the same id
func (s *SupabaseRESTStore) Upsert(ctx context.Context, rec domain.Record) (int64, error) {
	id, err := recordID(rec)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	now := s.opts.now()

	existing, err := s.fetch(id)
	if err != nil {
		return 0, err
	}

	row := supabaseRow{ID: id, CreatedDate: now, UpdatedDate: now}
	merged := fields(rec, id)
	if existing != nil {
		prev, err := decodeDoc(string(existing.Doc))
		if err != nil {
			return 0, fmt.Errorf("episode %d: %w: %w", id, ErrStorageCorrupt, err)
		}
		merged = mergeRecord(prev, rec, id, now)
		delete(merged, domain.KeyCreatedDate)
		delete(merged, domain.KeyUpdatedDate)
		row.CreatedDate = existing.CreatedDate
	}
	if row.Doc, err = json.Marshal(merged); err != nil {
		return 0, fmt.Errorf("encode episode %d: %w", id, err)
	}

	if _, _, err := s.client.SDK().From(episodesTable).Upsert(row, "id", "minimal", "").Execute(); err != nil {
		return 0, fmt.Errorf("upsert episode %d: %w", id, err)
	}
	s.opts.logger.Debug("episode upserted", zap.Int64("item_id", id), zap.Bool("inserted", existing == nil))
	return id, nil
}

// Get returns the episode with the given id
func (s *SupabaseRESTStore) Get(ctx context.Context, id int64) (*domain.Episode, error) {
	row, err := s.fetch(id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("episode %d: %w", id, ErrNotFound)
	}
	return row.episode()
}

// List returns every stored episode ordered by id
func (s *SupabaseRESTStore) List(ctx context.Context) ([]domain.Episode, error) {
	var rows []supabaseRow
	if _, err := s.client.SDK().From(episodesTable).Select("*", "", false).ExecuteTo(&rows); err != nil {
		return nil, fmt.Errorf("query episodes: %w", err)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })

	out := make([]domain.Episode, 0, len(rows))
	for _, row := range rows {
		ep, err := row.episode()
		if err != nil {
			return nil, err
		}
		out = append(out, *ep)
	}
	return out, nil
}

// Close closes the client
func (s *SupabaseRESTStore) Close(ctx context.Context) error {
	return s.client.Close()
}

func (s *SupabaseRESTStore) fetch(id int64) (*supabaseRow, error) {
	var rows []supabaseRow
	_, err := s.client.SDK().From(episodesTable).
		Select("*", "", false).
		Eq("id", strconv.FormatInt(id, 10)).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("read episode %d: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r supabaseRow) episode() (*domain.Episode, error) {
	rec, err := decodeDoc(string(r.Doc))
	if err != nil {
		return nil, fmt.Errorf("episode %d: %w: %w", r.ID, ErrStorageCorrupt, err)
	}
	rec[domain.KeyCreatedDate] = r.CreatedDate.UTC()
	rec[domain.KeyUpdatedDate] = r.UpdatedDate.UTC()
	ep, err := rec.Decode()
	if err != nil {
		return nil, fmt.Errorf("episode %d: %w: %w", r.ID, ErrStorageCorrupt, err)
	}
	return ep, nil
}
