// Package replication copies stored episodes from one store backend to another.
package replication

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"podcast-sync/pkg/db"
	"podcast-sync/pkg/domain"
	"podcast-sync/pkg/logging"

	"go.uber.org/zap"
)

const (
	defaultBatchSize = 100
	defaultWorkers   = 4
)

// Config wires the replication dependencies.
type Config struct {
	Source db.EpisodeStore
	Target db.EpisodeStore

	// Overwrite re-upserts episodes the target already has. Without it they are skipped.
	Overwrite bool
	BatchSize int
	Workers   int

	Logger *zap.Logger
}

// Stats reports what a replication did.
type Stats struct {
	Processed int
	Copied    int
	Skipped   int
}

// Replicator copies every episode of the source store into the target store.
//
// This is a one-shot "copy everything" flow. Bookkeeping dates are owned by each store,
// so created_date in the target reflects the time of the first copy.
type Replicator struct {
	source    db.EpisodeStore
	target    db.EpisodeStore
	overwrite bool
	batchSize int
	workers   int
	logger    *zap.Logger
}

// NewReplicator validates cfg and applies defaults.
func NewReplicator(cfg Config) (*Replicator, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("source store is required")
	}
	if cfg.Target == nil {
		return nil, fmt.Errorf("target store is required")
	}
	r := &Replicator{
		source:    cfg.Source,
		target:    cfg.Target,
		overwrite: cfg.Overwrite,
		batchSize: cfg.BatchSize,
		workers:   cfg.Workers,
		logger:    logging.Component(cfg.Logger, "replication"),
	}
	if r.batchSize <= 0 {
		r.batchSize = defaultBatchSize
	}
	if r.workers <= 0 {
		r.workers = defaultWorkers
	}
	return r, nil
}

// Replicate reads all episodes from the source and upserts them into the target.
// Batches run in parallel and the first error stops the copy.
func (r *Replicator) Replicate(ctx context.Context) (Stats, error) {
	episodes, err := r.source.List(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("read source episodes: %w", err)
	}
	r.logger.Info("loaded source episodes", zap.Int("count", len(episodes)))

	stats, err := r.processBatches(ctx, episodes)
	if err != nil {
		return stats, err
	}
	r.logger.Info("replication complete",
		zap.Int("processed", stats.Processed),
		zap.Int("copied", stats.Copied),
		zap.Int("skipped", stats.Skipped),
	)
	return stats, nil
}

type batchJob struct {
	batch      []domain.Episode
	start, end int
}

type batchResult struct {
	processed, copied int
	err               error
}

// processBatches fans batches out to the workers and sums their results.
func (r *Replicator) processBatches(ctx context.Context, episodes []domain.Episode) (Stats, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	numBatches := (len(episodes) + r.batchSize - 1) / r.batchSize
	jobs := make(chan batchJob, numBatches)
	results := make(chan batchResult, numBatches)

	for start := 0; start < len(episodes); start += r.batchSize {
		end := min(start+r.batchSize, len(episodes))
		jobs <- batchJob{batch: episodes[start:end], start: start, end: end}
	}
	close(jobs)

	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				copied, err := r.processBatch(ctx, job)
				results <- batchResult{processed: len(job.batch), copied: copied, err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var stats Stats
	var firstErr error
	for result := range results {
		if result.err != nil {
			if firstErr == nil {
				firstErr = result.err
				cancel()
			}
			continue
		}
		stats.Processed += result.processed
		stats.Copied += result.copied
		stats.Skipped += result.processed - result.copied
		r.logger.Debug("progress", zap.Int("processed", stats.Processed), zap.Int("total", len(episodes)))
	}
	return stats, firstErr
}

// processBatch copies one batch and returns how many episodes were written
func (r *Replicator) processBatch(ctx context.Context, job batchJob) (int, error) {
	copied := 0
	for _, ep := range job.batch {
		if err := ctx.Err(); err != nil {
			return copied, err
		}
		if !r.overwrite {
			exists, err := r.exists(ctx, ep.ID)
			if err != nil {
				return copied, fmt.Errorf("batch [%d:%d]: %w", job.start, job.end, err)
			}
			if exists {
				continue
			}
		}
		if _, err := r.target.Upsert(ctx, ep.Record()); err != nil {
			return copied, fmt.Errorf("batch [%d:%d]: copy episode %d: %w", job.start, job.end, ep.ID, err)
		}
		copied++
	}
	return copied, nil
}

func (r *Replicator) exists(ctx context.Context, id int64) (bool, error) {
	_, err := r.target.Get(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, db.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("check episode %d: %w", id, err)
	}
}
