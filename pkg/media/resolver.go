// Package media resolves a playable location for an item.
package media

import (
	"context"
	"fmt"
	"strings"

	"podcast-sync/pkg/domain"
	"podcast-sync/pkg/httpclient"
	"podcast-sync/pkg/logging"
	"podcast-sync/pkg/urls"

	"go.uber.org/zap"
)

// strategy returns a location, or nil when it does not apply or failed
type strategy struct {
	name    string
	resolve func(ctx context.Context, cred domain.Credential, item domain.Item) *string
}

// Resolver tries each media strategy in order and returns the first location found
type Resolver struct {
	http       *httpclient.HTTPClient
	feed       *FeedIndex
	logger     *zap.Logger
	strategies []strategy
}

// NewResolver creates a resolver. feed may be nil.
func NewResolver(client *httpclient.HTTPClient, feed *FeedIndex, logger *zap.Logger) *Resolver {
	if client == nil {
		client = httpclient.NewClient(httpclient.APIClient)
	}
	r := &Resolver{
		http:   client,
		feed:   feed,
		logger: logging.Component(logger, "media"),
	}
	r.strategies = []strategy{
		{name: "stream", resolve: r.fromStream},
		{name: "progressive", resolve: r.fromProgressive},
		{name: "download", resolve: r.fromDownload},
		{name: "feed", resolve: r.fromFeed},
	}
	return r
}

// Resolve returns the first location produced by the ordered strategies, or nil.
// It never panics; unexpected failures degrade to nil.
func (r *Resolver) Resolve(ctx context.Context, cred domain.Credential, item domain.Item) (location *string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("media resolution panicked",
				zap.Int64(logging.FieldItemID, item.ID),
				zap.Any("panic", rec))
			location = nil
		}
	}()

	for _, s := range r.strategies {
		if loc := s.resolve(ctx, cred, item); loc != nil {
			r.logger.Debug("media resolved",
				zap.Int64(logging.FieldItemID, item.ID),
				zap.String("strategy", s.name))
			return loc
		}
	}
	r.logger.Info("no media location", zap.Int64(logging.FieldItemID, item.ID))
	return nil
}

func (r *Resolver) fromStream(ctx context.Context, cred domain.Credential, item domain.Item) *string {
	if item.StreamURL == nil || *item.StreamURL == "" {
		return nil
	}
	loc, err := r.lookup(ctx, cred, *item.StreamURL)
	if err != nil {
		r.logger.Debug("stream lookup failed", zap.Int64(logging.FieldItemID, item.ID), zap.Error(err))
		return nil
	}
	return loc
}

func (r *Resolver) fromProgressive(ctx context.Context, cred domain.Credential, item domain.Item) *string {
	for _, t := range item.Transcodings() {
		if !t.IsProgressive() || t.URL == "" {
			continue
		}
		loc, err := r.lookup(ctx, cred, t.URL)
		if err != nil {
			r.logger.Debug("rendition lookup failed",
				zap.Int64(logging.FieldItemID, item.ID),
				zap.String(logging.FieldURL, t.URL),
				zap.Error(err))
			continue
		}
		if loc != nil {
			return loc
		}
	}
	return nil
}

func (r *Resolver) fromDownload(_ context.Context, cred domain.Credential, item domain.Item) *string {
	if !item.Downloadable || item.DownloadURL == nil || *item.DownloadURL == "" {
		return nil
	}
	loc := urls.AppendQuery(*item.DownloadURL, "client_id", cred.String())
	return &loc
}

func (r *Resolver) fromFeed(ctx context.Context, _ domain.Credential, item domain.Item) *string {
	if r.feed == nil {
		return nil
	}
	loc, err := r.feed.Lookup(ctx, item)
	if err != nil {
		r.logger.Debug("feed lookup failed", zap.Int64(logging.FieldItemID, item.ID), zap.Error(err))
		return nil
	}
	return loc
}

// lookup calls a media endpoint with the credential and returns its url field
func (r *Resolver) lookup(ctx context.Context, cred domain.Credential, endpoint string) (*string, error) {
	target, err := urls.WithQuery(endpoint, "client_id", cred.String())
	if err != nil {
		return nil, err
	}
	var resp struct {
		URL string `json:"url"`
	}
	if err := r.http.GetJSON(ctx, target, &resp); err != nil {
		return nil, err
	}
	if strings.TrimSpace(resp.URL) == "" {
		return nil, fmt.Errorf("response from %s has no url", endpoint)
	}
	return &resp.URL, nil
}
