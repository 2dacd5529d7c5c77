package urls

import (
	"context"
	"fmt"
	"strings"

	"podcast-sync/pkg/httpclient"

	"github.com/PuerkitoBio/goquery"
)

// URLExtractor is a function type that extracts URLs from HTML content found at pageURL
type URLExtractor func(html, pageURL string) ([]URL, error)

// HTMLFetcher handles fetching HTML pages and extracting URLs using a provided extractor
type HTMLFetcher struct {
	client    *httpclient.HTTPClient
	extractor URLExtractor
}

// NewHTMLFetcher creates a new HTML fetcher using a browser-like client
func NewHTMLFetcher(extractor URLExtractor) *HTMLFetcher {
	return NewHTMLFetcherWithClient(extractor, httpclient.NewClient(httpclient.BrowserClient))
}

// NewHTMLFetcherWithClient creates a new HTML fetcher with a specific client
func NewHTMLFetcherWithClient(extractor URLExtractor, client *httpclient.HTTPClient) *HTMLFetcher {
	return &HTMLFetcher{
		client:    client,
		extractor: extractor,
	}
}

// Fetch implements URLsFetcher - fetches HTML from pageURL and extracts URLs.
// An empty result is not an error.
func (f *HTMLFetcher) Fetch(ctx context.Context, pageURL string) ([]URL, error) {
	if f.extractor == nil {
		return nil, fmt.Errorf("extractor function is not set")
	}

	body, err := f.client.GetBytes(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch HTML: %w", err)
	}

	found, err := f.extractor(string(body), pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to extract URLs: %w", err)
	}
	return found, nil
}

// scriptStrategy selects candidate script elements from a parsed page
type scriptStrategy struct {
	name string
	find func(doc *goquery.Document) *goquery.Selection
}

// ScriptExtractor returns an extractor for client script bundles. Strategies run in a
// fixed order: scripts whose src contains one of fragments, then any script[crossorigin].
// Results are normalized against the page and de-duplicated in first-seen order.
func ScriptExtractor(fragments []string) URLExtractor {
	fragmentFilter := NewContainsAnyFilter(fragments...)
	strategies := []scriptStrategy{
		{
			name: "bundle",
			find: func(doc *goquery.Document) *goquery.Selection {
				return doc.Find("script[src]").FilterFunction(func(_ int, s *goquery.Selection) bool {
					src, _ := s.Attr("src")
					ok, _ := fragmentFilter.ShouldKeep(context.Background(), src)
					return ok
				})
			},
		},
		{
			name: "crossorigin",
			find: func(doc *goquery.Document) *goquery.Selection {
				return doc.Find("script[crossorigin][src]")
			},
		},
	}

	return func(html, pageURL string) ([]URL, error) {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			return nil, fmt.Errorf("failed to parse HTML: %w", err)
		}

		var found []URL
		for _, strategy := range strategies {
			strategy.find(doc).Each(func(_ int, s *goquery.Selection) {
				src, _ := s.Attr("src")
				abs, err := Normalize(src, pageURL)
				if err != nil {
					return
				}
				found = append(found, URL{Location: abs, Source: strategy.name})
			})
		}
		return Dedupe(found), nil
	}
}
