// Package provider talks to the platform's undocumented JSON API.
package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"podcast-sync/pkg/domain"
	"podcast-sync/pkg/httpclient"
	"podcast-sync/pkg/logging"
	"podcast-sync/pkg/urls"

	"go.uber.org/zap"
)

const (
	// DefaultAPIBase is the public API host used by the web client
	DefaultAPIBase = "https://api-v2.soundcloud.com"
	// DefaultPageSize is the largest page the collection endpoints accept
	DefaultPageSize = 200

	pageDelay = time.Second
)

// Client issues credentialed calls against the provider API
type Client struct {
	apiBase  string
	pageSize int
	http     *httpclient.HTTPClient
	logger   *zap.Logger

	// sleep waits between page requests; replaced in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// Option customizes a Client
type Option func(*Client)

// WithAPIBase overrides the API host
func WithAPIBase(base string) Option {
	return func(c *Client) {
		if base = strings.TrimRight(strings.TrimSpace(base), "/"); base != "" {
			c.apiBase = base
		}
	}
}

// WithPageSize overrides the collection page size
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logging.Component(logger, "provider")
	}
}

// NewClient creates an API client. A nil http client gets an API-flavoured default.
func NewClient(http *httpclient.HTTPClient, opts ...Option) *Client {
	if http == nil {
		http = httpclient.NewClient(httpclient.APIClient)
	}
	c := &Client{
		apiBase:  DefaultAPIBase,
		pageSize: DefaultPageSize,
		http:     http,
		logger:   logging.Component(nil, "provider"),
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// getJSON fetches rawURL with the credential applied and decodes the response into out.
func (c *Client) getJSON(ctx context.Context, cred domain.Credential, rawURL string, out any) error {
	target, err := urls.WithQuery(rawURL, "client_id", cred.String())
	if err != nil {
		return err
	}
	return c.http.GetJSON(ctx, target, out)
}

func (c *Client) endpoint(format string, args ...any) string {
	return c.apiBase + fmt.Sprintf(format, args...)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
