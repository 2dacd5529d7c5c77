package provider

import (
	"context"
	"fmt"

	"podcast-sync/pkg/domain"

	"go.uber.org/zap"
)

// FetchAll enumerates every item of an owner by following next_href cursors.
// Items are returned in encounter order. Pages are requested one second apart;
// any page error aborts the enumeration and no partial result is returned.
func (c *Client) FetchAll(ctx context.Context, cred domain.Credential, ownerID int64) ([]domain.Item, error) {
	next := c.endpoint("/users/%d/tracks?limit=%d&linked_partitioning=1", ownerID, c.pageSize)

	var items []domain.Item
	for page := 1; next != ""; page++ {
		if page > 1 {
			if err := c.sleep(ctx, pageDelay); err != nil {
				return nil, fmt.Errorf("wait before page %d: %w", page, err)
			}
		}

		var p domain.Page
		if err := c.getJSON(ctx, cred, next, &p); err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", page, err)
		}
		items = append(items, p.Collection...)
		c.logger.Debug("page fetched",
			zap.Int("page", page),
			zap.Int("page_items", len(p.Collection)),
			zap.Int("total_items", len(items)))

		next = p.NextHref
	}

	c.logger.Info("enumeration complete", zap.Int64("owner_id", ownerID), zap.Int("items", len(items)))
	return items, nil
}
