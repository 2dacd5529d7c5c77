package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"podcast-sync/pkg/domain"

	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned by Get when no episode has the requested id
	ErrNotFound = errors.New("episode not found")
	// ErrStoreLocked is returned when another process holds the store
	ErrStoreLocked = errors.New("episode store is locked by another process")
	// ErrStorageCorrupt is returned when the persisted document cannot be decoded
	ErrStorageCorrupt = errors.New("episode store is corrupt")
)

// EpisodeStore persists episodes keyed by id.
//
// Upsert merges the incoming record over the stored one: every key present on the record
// replaces the stored value, created_date is set on first insert only and updated_date on
// every write. It returns the episode id once the write is durable.
type EpisodeStore interface {
	Upsert(ctx context.Context, rec domain.Record) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Episode, error)
	List(ctx context.Context) ([]domain.Episode, error)
	Close(ctx context.Context) error
}

// Option customizes a store
type Option func(*storeOptions)

type storeOptions struct {
	now    func() time.Time
	logger *zap.Logger
}

// WithClock sets the time source used for created_date and updated_date
func WithClock(now func() time.Time) Option {
	return func(o *storeOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the store logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *storeOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func buildOptions(component string, opts []Option) storeOptions {
	o := storeOptions{
		now:    func() time.Time { return time.Now().UTC() },
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = o.logger.With(zap.String("component", component))
	return o
}

// recordID extracts the id of an incoming record
func recordID(rec domain.Record) (int64, error) {
	id, ok := rec.ID()
	if !ok || id == 0 {
		return 0, fmt.Errorf("record has no usable id: %v", rec[domain.KeyID])
	}
	return id, nil
}

// fields returns the record without bookkeeping keys, with a normalized id
func fields(rec domain.Record, id int64) domain.Record {
	out := rec.Clone()
	delete(out, domain.KeyCreatedDate)
	delete(out, domain.KeyUpdatedDate)
	out[domain.KeyID] = id
	return out
}

// mergeRecord applies incoming over existing. existing may be nil for an insert.
func mergeRecord(existing, incoming domain.Record, id int64, now time.Time) domain.Record {
	merged := make(domain.Record, len(existing)+len(incoming)+2)
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range fields(incoming, id) {
		merged[k] = v
	}
	if _, ok := existing[domain.KeyCreatedDate]; !ok {
		merged[domain.KeyCreatedDate] = now
	}
	merged[domain.KeyUpdatedDate] = now
	return merged
}
