package db

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"podcast-sync/pkg/domain"

	"go.uber.org/zap"
)

// dialect captures the statements that differ between SQL backends.
type dialect struct {
	name   string
	schema string
	// upsert receives id, document, and timestamp. When mergeInSQL is false the
	// document is already merged with the stored one.
	upsert     string
	selectOne  string
	selectAll  string
	mergeInSQL bool
	// encodeTime converts timestamps into the driver representation
	encodeTime func(time.Time) any
}

var postgresDialect = dialect{
	name: "postgres",
	schema: `CREATE TABLE IF NOT EXISTS episodes (
	id BIGINT PRIMARY KEY,
	doc JSONB NOT NULL,
	created_date TIMESTAMPTZ NOT NULL,
	updated_date TIMESTAMPTZ NOT NULL
)`,
	upsert: `INSERT INTO episodes (id, doc, created_date, updated_date)
VALUES ($1, $2::jsonb, $3, $3)
ON CONFLICT (id) DO UPDATE SET doc = episodes.doc || EXCLUDED.doc, updated_date = EXCLUDED.updated_date`,
	selectOne:  `SELECT doc::text, created_date, updated_date FROM episodes WHERE id = $1`,
	selectAll:  `SELECT doc::text, created_date, updated_date FROM episodes ORDER BY id`,
	mergeInSQL: true,
	encodeTime: func(t time.Time) any { return t },
}

var sqliteDialect = dialect{
	name: "sqlite",
	schema: `CREATE TABLE IF NOT EXISTS episodes (
	id INTEGER PRIMARY KEY,
	doc TEXT NOT NULL,
	created_date TEXT NOT NULL,
	updated_date TEXT NOT NULL
)`,
	upsert: `INSERT INTO episodes (id, doc, created_date, updated_date)
VALUES (?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET doc = excluded.doc, updated_date = excluded.updated_date`,
	selectOne:  `SELECT doc, created_date, updated_date FROM episodes WHERE id = ?`,
	selectAll:  `SELECT doc, created_date, updated_date FROM episodes ORDER BY id`,
	mergeInSQL: false,
	encodeTime: func(t time.Time) any { return t.UTC().Format(time.RFC3339Nano) },
}

// SQLStore keeps episodes in an "episodes" table with the document in a JSON column
// and the bookkeeping dates in their own columns.
type SQLStore struct {
	provider DBProvider
	dialect  dialect
	closer   func() error
	opts     storeOptions
}

func newSQLStore(ctx context.Context, provider DBProvider, d dialect, closer func() error, opts []Option) (*SQLStore, error) {
	if provider.DB() == nil {
		return nil, fmt.Errorf("%s store: no database handle", d.name)
	}
	s := &SQLStore{
		provider: provider,
		dialect:  d,
		closer:   closer,
		opts:     buildOptions(d.name+"_store", opts),
	}
	if _, err := s.db().ExecContext(ctx, d.schema); err != nil {
		return nil, fmt.Errorf("create %s schema: %w", d.name, err)
	}
	return s, nil
}

// NewPostgresStore creates the episodes table if needed and returns a store on the
// connected provider, which may be a PostgresClient or a SupabaseClient.
func NewPostgresStore(ctx context.Context, provider DBProvider, opts ...Option) (*SQLStore, error) {
	var closer func() error
	if c, ok := provider.(interface{ Close() error }); ok {
		closer = c.Close
	}
	return newSQLStore(ctx, provider, postgresDialect, closer, opts)
}

func (s *SQLStore) db() *sql.DB {
	return s.provider.DB()
}

// Upsert merges rec into the row with the same id
func (s *SQLStore) Upsert(ctx context.Context, rec domain.Record) (int64, error) {
	id, err := recordID(rec)
	if err != nil {
		return 0, err
	}
	now := s.opts.now()

	if s.dialect.mergeInSQL {
		doc, err := json.Marshal(fields(rec, id))
		if err != nil {
			return 0, fmt.Errorf("encode episode %d: %w", id, err)
		}
		if _, err := s.db().ExecContext(ctx, s.dialect.upsert, id, string(doc), s.dialect.encodeTime(now)); err != nil {
			return 0, fmt.Errorf("upsert episode %d: %w", id, err)
		}
	} else if err := s.mergeUpsert(ctx, id, rec, now); err != nil {
		return 0, err
	}

	s.opts.logger.Debug("episode upserted", zap.Int64("item_id", id))
	return id, nil
}

// mergeUpsert reads the stored document and writes the merged one in a single transaction
func (s *SQLStore) mergeUpsert(ctx context.Context, id int64, rec domain.Record, now time.Time) error {
	tx, err := s.db().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	merged := fields(rec, id)
	var raw string
	var created, updated any
	err = tx.QueryRowContext(ctx, s.dialect.selectOne, id).Scan(&raw, &created, &updated)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("read episode %d: %w", id, err)
	default:
		existing, err := decodeDoc(raw)
		if err != nil {
			return fmt.Errorf("episode %d: %w: %w", id, ErrStorageCorrupt, err)
		}
		merged = mergeRecord(existing, rec, id, now)
		delete(merged, domain.KeyCreatedDate)
		delete(merged, domain.KeyUpdatedDate)
	}

	doc, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("encode episode %d: %w", id, err)
	}
	ts := s.dialect.encodeTime(now)
	if _, err := tx.ExecContext(ctx, s.dialect.upsert, id, string(doc), ts, ts); err != nil {
		return fmt.Errorf("upsert episode %d: %w", id, err)
	}
	return tx.Commit()
}

// Get returns the episode with the given id
func (s *SQLStore) Get(ctx context.Context, id int64) (*domain.Episode, error) {
	row := s.db().QueryRowContext(ctx, s.dialect.selectOne, id)
	ep, err := scanEpisode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("episode %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("episode %d: %w", id, err)
	}
	return ep, nil
}

// List returns every stored episode ordered by id
func (s *SQLStore) List(ctx context.Context) ([]domain.Episode, error) {
	rows, err := s.db().QueryContext(ctx, s.dialect.selectAll)
	if err != nil {
		return nil, fmt.Errorf("query episodes: %w", err)
	}
	defer rows.Close()

	var out []domain.Episode
	for rows.Next() {
		ep, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate episodes: %w", err)
	}
	return out, nil
}

// Close releases the database handle when the store owns it
func (s *SQLStore) Close(ctx context.Context) error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEpisode(row rowScanner) (*domain.Episode, error) {
	var raw string
	var created, updated any
	if err := row.Scan(&raw, &created, &updated); err != nil {
		return nil, err
	}
	rec, err := decodeDoc(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageCorrupt, err)
	}
	if rec[domain.KeyCreatedDate], err = scanTime(created); err != nil {
		return nil, fmt.Errorf("%w: created_date: %w", ErrStorageCorrupt, err)
	}
	if rec[domain.KeyUpdatedDate], err = scanTime(updated); err != nil {
		return nil, fmt.Errorf("%w: updated_date: %w", ErrStorageCorrupt, err)
	}
	ep, err := rec.Decode()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageCorrupt, err)
	}
	return ep, nil
}

func decodeDoc(raw string) (domain.Record, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var rec domain.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	if rec == nil {
		rec = domain.Record{}
	}
	return rec, nil
}

// scanTime accepts the timestamp forms drivers hand back for a timestamp or text column
func scanTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		return time.Parse(time.RFC3339Nano, t)
	case []byte:
		return time.Parse(time.RFC3339Nano, string(t))
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp %T", v)
	}
}
