package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"podcast-sync/pkg/domain"
	"podcast-sync/pkg/httpclient"
	"podcast-sync/pkg/logging"

	"go.uber.org/zap"
)

// ErrOwnerNotFound is returned when the profile URL does not resolve to a user account.
var ErrOwnerNotFound = errors.New("owner not found")

// ResolveOwner looks up the account behind a canonical profile URL.
func (c *Client) ResolveOwner(ctx context.Context, cred domain.Credential, profileURL string) (*domain.Owner, error) {
	var owner domain.Owner
	endpoint := c.endpoint("/resolve?url=%s", url.QueryEscape(profileURL))
	if err := c.getJSON(ctx, cred, endpoint, &owner); err != nil {
		if httpclient.StatusCode(err) == http.StatusNotFound {
			return nil, fmt.Errorf("resolve %s: %w", profileURL, ErrOwnerNotFound)
		}
		return nil, fmt.Errorf("resolve %s: %w", profileURL, err)
	}
	if owner.ID == 0 || (owner.Kind != "" && owner.Kind != "user") {
		return nil, fmt.Errorf("resolve %s: kind %q: %w", profileURL, owner.Kind, ErrOwnerNotFound)
	}

	c.logger.Info("owner resolved",
		zap.Int64("owner_id", owner.ID),
		zap.String("username", owner.Username),
		zap.String(logging.FieldURL, profileURL))
	return &owner, nil
}

// Prober checks credentials by resolving a fixed profile URL
type Prober struct {
	client     *Client
	profileURL string
}

// NewProber returns a credential prober that resolves profileURL
func NewProber(client *Client, profileURL string) *Prober {
	return &Prober{client: client, profileURL: profileURL}
}

// ProbeCredential succeeds when the resolve call is accepted with cred
func (p *Prober) ProbeCredential(ctx context.Context, cred domain.Credential) error {
	var discard map[string]any
	endpoint := p.client.endpoint("/resolve?url=%s", url.QueryEscape(p.profileURL))
	return p.client.getJSON(ctx, cred, endpoint, &discard)
}
