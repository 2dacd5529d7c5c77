package pipeline

import (
	"context"
	"fmt"

	"podcast-sync/pkg/content"
	"podcast-sync/pkg/domain"
	"podcast-sync/pkg/logging"

	"go.uber.org/zap"
)

type outcome int

const (
	outcomeStored outcome = iota
	outcomeSkipped
	outcomeFailed
)

// processItem turns one enumerated item into a stored episode. Panics and errors are
// contained here so the loop in Run always moves on to the next item.
func (p *Pipeline) processItem(ctx context.Context, cred domain.Credential, summary domain.Item, logger *zap.Logger) (ep *domain.Episode, result outcome) {
	logger = logger.With(zap.Int64(logging.FieldItemID, summary.ID))
	defer func() {
		if r := recover(); r != nil {
			logger.Error("item processing panicked", zap.Any("panic", r), zap.Stack("stack"))
			ep, result = nil, outcomeFailed
		}
	}()

	item := p.effectiveItem(ctx, cred, summary, logger)
	if !item.Streamable {
		logger.Debug("item not streamable, skipping", zap.String("title", item.Title))
		return nil, outcomeSkipped
	}

	episode, err := p.buildEpisode(ctx, cred, item)
	if err != nil {
		logger.Warn("item dropped", zap.Error(err))
		return nil, outcomeFailed
	}

	id, err := p.cfg.Store.Upsert(ctx, episode.Record())
	if err != nil {
		logger.Warn("item dropped", zap.Error(fmt.Errorf("upsert: %w", err)))
		return nil, outcomeFailed
	}

	stored, err := p.cfg.Store.Get(ctx, id)
	if err != nil || stored == nil {
		// the write went through; only the bookkeeping dates are missing from the result
		logger.Warn("stored episode could not be read back", zap.Error(err))
		stored = &episode
	}

	logger.Info("episode stored",
		zap.String("title", stored.Title),
		zap.Bool("has_stream", stored.StreamURL != nil),
		zap.Bool("has_show_notes", stored.ShowNotes != nil),
		zap.Int("chapters", len(stored.Chapters)),
	)
	return stored, outcomeStored
}

// effectiveItem prefers the detail record and falls back to the enumerated summary
func (p *Pipeline) effectiveItem(ctx context.Context, cred domain.Credential, summary domain.Item, logger *zap.Logger) domain.Item {
	detail, ok := p.cfg.Details.FetchDetail(ctx, cred, summary.ID)
	if !ok || detail == nil {
		logger.Debug("using summary record")
		return summary
	}
	return *detail
}

func (p *Pipeline) buildEpisode(ctx context.Context, cred domain.Credential, item domain.Item) (domain.Episode, error) {
	if item.ID == 0 {
		return domain.Episode{}, fmt.Errorf("item has no id")
	}
	stream := p.cfg.Media.Resolve(ctx, cred, item)
	showNotes := content.ExtractDescriptionLink(item.Description)
	chapters := content.ExtractChapters(item.Description)
	return domain.NewEpisode(item, stream, showNotes, chapters), nil
}
