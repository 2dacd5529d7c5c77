package provider

import (
	"context"

	"podcast-sync/pkg/domain"
	"podcast-sync/pkg/logging"

	"go.uber.org/zap"
)

// FetchDetail returns the full record for one item. Failures are logged and
// reported as (nil, false) so the caller can fall back to the summary record.
func (c *Client) FetchDetail(ctx context.Context, cred domain.Credential, itemID int64) (*domain.Item, bool) {
	var item domain.Item
	if err := c.getJSON(ctx, cred, c.endpoint("/tracks/%d", itemID), &item); err != nil {
		c.logger.Warn("detail fetch failed, using summary",
			zap.Int64(logging.FieldItemID, itemID),
			zap.Error(err))
		return nil, false
	}
	if item.ID == 0 {
		item.ID = itemID
	}
	return &item, true
}
