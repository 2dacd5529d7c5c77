package db

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"podcast-sync/pkg/domain"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

// jsonDocument is the on-disk layout of the JSON store
type jsonDocument struct {
	Episodes []domain.Record `json:"episodes"`
}

// JSONStore keeps every episode in a single JSON document that is read and
// rewritten in full on each upsert. A lock file next to the document keeps a
// second process from opening the same store.
type JSONStore struct {
	path string
	lock *flock.Flock
	mu   sync.Mutex
	opts storeOptions
}

// NewJSONStore opens (or prepares) the document at path and takes the process lock.
func NewJSONStore(path string, opts ...Option) (*JSONStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire store lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", path, ErrStoreLocked)
	}

	s := &JSONStore{
		path: path,
		lock: lock,
		opts: buildOptions("json_store", opts),
	}
	if _, err := s.load(); err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	return s, nil
}

// Upsert merges rec into the document and rewrites it before returning.
func (s *JSONStore) Upsert(ctx context.Context, rec domain.Record) (int64, error) {
	id, err := recordID(rec)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return 0, err
	}

	now := s.opts.now()
	idx := indexOf(doc.Episodes, id)
	if idx >= 0 {
		doc.Episodes[idx] = mergeRecord(doc.Episodes[idx], rec, id, now)
	} else {
		doc.Episodes = append(doc.Episodes, mergeRecord(nil, rec, id, now))
	}

	if err := s.save(doc); err != nil {
		return 0, err
	}
	s.opts.logger.Debug("episode upserted", zap.Int64("item_id", id), zap.Bool("inserted", idx < 0))
	return id, nil
}

// Get returns the episode with the given id.
func (s *JSONStore) Get(ctx context.Context, id int64) (*domain.Episode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	idx := indexOf(doc.Episodes, id)
	if idx < 0 {
		return nil, fmt.Errorf("episode %d: %w", id, ErrNotFound)
	}
	ep, err := doc.Episodes[idx].Decode()
	if err != nil {
		return nil, fmt.Errorf("episode %d: %w: %w", id, ErrStorageCorrupt, err)
	}
	return ep, nil
}

// List returns every stored episode in document order.
func (s *JSONStore) List(ctx context.Context) ([]domain.Episode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Episode, 0, len(doc.Episodes))
	for _, rec := range doc.Episodes {
		ep, err := rec.Decode()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStorageCorrupt, err)
		}
		out = append(out, *ep)
	}
	return out, nil
}

// Close releases the process lock.
func (s *JSONStore) Close(ctx context.Context) error {
	if s.lock == nil {
		return nil
	}
	return s.lock.Unlock()
}

// Path returns the document location.
func (s *JSONStore) Path() string {
	return s.path
}

func (s *JSONStore) load() (*jsonDocument, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &jsonDocument{}, nil
		}
		return nil, fmt.Errorf("read store: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return &jsonDocument{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc jsonDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", s.path, ErrStorageCorrupt, err)
	}
	return &doc, nil
}

func (s *JSONStore) save(doc *jsonDocument) error {
	if doc.Episodes == nil {
		doc.Episodes = []domain.Record{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}

	w, err := newAtomicWriter(s.path)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.abort()
		return fmt.Errorf("write store: %w", err)
	}
	return w.commit()
}

func indexOf(records []domain.Record, id int64) int {
	for i, rec := range records {
		if recID, ok := rec.ID(); ok && recID == id {
			return i
		}
	}
	return -1
}
