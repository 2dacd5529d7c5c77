// Package credential discovers the provider's client_id token from its public web client.
package credential

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"podcast-sync/pkg/domain"
	"podcast-sync/pkg/httpclient"
	"podcast-sync/pkg/logging"
	"podcast-sync/pkg/urls"

	"go.uber.org/zap"
)

// ErrCredentialUnavailable is returned when no strategy yields a usable token.
var ErrCredentialUnavailable = errors.New("credential unavailable")

// Prober checks a candidate token with a lightweight authenticated call
type Prober interface {
	ProbeCredential(ctx context.Context, cred domain.Credential) error
}

// tokenPatterns are tried in order against each script body; the first match wins.
var tokenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`client_id\s*:\s*"([A-Za-z0-9]{32})"`),
	regexp.MustCompile(`clientId\s*:\s*"([A-Za-z0-9]{32})"`),
	regexp.MustCompile(`"client_id"\s*:\s*"([A-Za-z0-9]{32})"`),
	regexp.MustCompile(`client_id\s*[:=]\s*([A-Za-z0-9]{32})\b`),
	regexp.MustCompile(`clientId\s*[:=]\s*([A-Za-z0-9]{32})\b`),
	regexp.MustCompile(`[?&]client_id=([A-Za-z0-9]{32})\b`),
}

// Config holds the inputs to credential discovery
type Config struct {
	ProfileURL      string
	ScriptFragments []string
	FallbackTokens  []string
}

// Resolver derives a Credential for one run
type Resolver struct {
	cfg     Config
	scripts urls.URLsFetcher
	client  *httpclient.HTTPClient
	prober  Prober
	logger  *zap.Logger
}

// NewResolver creates a resolver. prober may be nil, in which case fallback tokens are skipped.
func NewResolver(cfg Config, client *httpclient.HTTPClient, prober Prober, logger *zap.Logger) *Resolver {
	if client == nil {
		client = httpclient.NewClient(httpclient.BrowserClient)
	}
	return &Resolver{
		cfg:     cfg,
		scripts: urls.NewHTMLFetcherWithClient(urls.ScriptExtractor(cfg.ScriptFragments), client),
		client:  client,
		prober:  prober,
		logger:  logging.Component(logger, "credential"),
	}
}

// Resolve scans the profile page's script bundles for a token, then tries the
// configured fallback tokens. It fails with ErrCredentialUnavailable when both are exhausted.
func (r *Resolver) Resolve(ctx context.Context) (domain.Credential, error) {
	if cred, ok := r.fromScripts(ctx); ok {
		return cred, nil
	}
	if cred, ok := r.fromFallbacks(ctx); ok {
		return cred, nil
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrCredentialUnavailable, err)
	}
	return "", ErrCredentialUnavailable
}

func (r *Resolver) fromScripts(ctx context.Context) (domain.Credential, bool) {
	found, err := r.scripts.Fetch(ctx, r.cfg.ProfileURL)
	if err != nil {
		r.logger.Warn("profile page fetch failed", zap.String(logging.FieldURL, r.cfg.ProfileURL), zap.Error(err))
		return "", false
	}
	r.logger.Debug("candidate scripts discovered", zap.Int("count", len(found)))

	for _, script := range found {
		if ctx.Err() != nil {
			return "", false
		}
		body, err := r.client.GetBytes(ctx, script.Location)
		if err != nil {
			r.logger.Debug("script fetch failed", zap.String(logging.FieldURL, script.Location), zap.Error(err))
			continue
		}
		if token, ok := ExtractToken(string(body)); ok {
			r.logger.Info("credential found in script",
				zap.String(logging.FieldURL, script.Location),
				zap.String("strategy", script.Source))
			return domain.Credential(token), true
		}
	}
	return "", false
}

func (r *Resolver) fromFallbacks(ctx context.Context) (domain.Credential, bool) {
	if r.prober == nil {
		return "", false
	}
	if len(r.cfg.FallbackTokens) == 0 {
		r.logger.Warn("no credential found in scripts and no fallback tokens configured (provider.fallback_tokens)")
		return "", false
	}
	for i, token := range r.cfg.FallbackTokens {
		if ctx.Err() != nil {
			return "", false
		}
		cred := domain.Credential(token)
		if err := r.prober.ProbeCredential(ctx, cred); err != nil {
			r.logger.Debug("fallback token rejected", zap.Int("index", i), zap.Error(err))
			continue
		}
		r.logger.Info("using fallback credential", zap.Int("index", i))
		return cred, true
	}
	return "", false
}

// ExtractToken returns the first token matched by the ordered pattern list.
func ExtractToken(body string) (string, bool) {
	for _, re := range tokenPatterns {
		if m := re.FindStringSubmatch(body); m != nil {
			return m[1], true
		}
	}
	return "", false
}
