package media

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"podcast-sync/pkg/domain"
	"podcast-sync/pkg/httpclient"

	"github.com/mmcdole/gofeed"
)

// FeedIndex looks up enclosure URLs in the owner's podcast RSS feed.
// The feed is fetched on first use and kept for the lifetime of the index.
type FeedIndex struct {
	feedURL    string
	client     *httpclient.HTTPClient
	feedParser *gofeed.Parser

	loaded  bool
	loadErr error
	byID    map[int64]string
	byTitle map[string]string
}

var guidTrackID = regexp.MustCompile(`tracks/(\d+)$`)

// NewFeedIndex creates an index over the feed at feedURL
func NewFeedIndex(feedURL string, client *httpclient.HTTPClient) *FeedIndex {
	if client == nil {
		client = httpclient.NewClient(httpclient.BrowserClient)
	}
	return &FeedIndex{
		feedURL:    feedURL,
		client:     client,
		feedParser: gofeed.NewParser(),
	}
}

// Lookup returns the enclosure URL for item, matched by GUID suffix tracks/<id>
// first and by title second.
func (f *FeedIndex) Lookup(ctx context.Context, item domain.Item) (*string, error) {
	if err := f.load(ctx); err != nil {
		return nil, err
	}

	if enclosure, ok := f.byID[item.ID]; ok {
		return &enclosure, nil
	}
	if enclosure, ok := f.byTitle[titleKey(item.Title)]; ok {
		return &enclosure, nil
	}
	return nil, nil
}

func (f *FeedIndex) load(ctx context.Context) error {
	if f.loaded {
		return f.loadErr
	}
	f.loaded = true

	body, err := f.client.GetBytes(ctx, f.feedURL)
	if err != nil {
		f.loadErr = fmt.Errorf("failed to fetch RSS feed: %w", err)
		return f.loadErr
	}
	feed, err := f.feedParser.ParseString(string(body))
	if err != nil {
		f.loadErr = fmt.Errorf("failed to parse RSS feed: %w", err)
		return f.loadErr
	}

	f.byID = make(map[int64]string, len(feed.Items))
	f.byTitle = make(map[string]string, len(feed.Items))
	for _, it := range feed.Items {
		enclosure := firstAudioEnclosure(it)
		if enclosure == "" {
			continue
		}
		if m := guidTrackID.FindStringSubmatch(it.GUID); m != nil {
			if id, err := strconv.ParseInt(m[1], 10, 64); err == nil {
				f.byID[id] = enclosure
			}
		}
		if key := titleKey(it.Title); key != "" {
			if _, dup := f.byTitle[key]; !dup {
				f.byTitle[key] = enclosure
			}
		}
	}
	return nil
}

func firstAudioEnclosure(it *gofeed.Item) string {
	for _, enc := range it.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		if enc.Type == "" || strings.HasPrefix(enc.Type, "audio/") {
			return enc.URL
		}
	}
	return ""
}

func titleKey(title string) string {
	return strings.ToLower(strings.Join(strings.Fields(title), " "))
}
