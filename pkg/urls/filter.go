package urls

import (
	"context"
	"fmt"
	"strings"
)

// UrlFilter defines the interface for URL filtering
type UrlFilter interface {
	ShouldKeep(ctx context.Context, url string) (bool, error)
}

// ContainsAnyFilter keeps URLs that contain at least one of the configured fragments
type ContainsAnyFilter struct {
	fragments []string
}

// NewContainsAnyFilter creates a filter for the given name fragments
func NewContainsAnyFilter(fragments ...string) *ContainsAnyFilter {
	return &ContainsAnyFilter{fragments: fragments}
}

// ShouldKeep returns true if url contains any fragment
func (f *ContainsAnyFilter) ShouldKeep(ctx context.Context, url string) (bool, error) {
	for _, frag := range f.fragments {
		if frag != "" && strings.Contains(url, frag) {
			return true, nil
		}
	}
	return false, nil
}

// AlreadySeenFilter drops URLs that have already been kept once.
// It is stateful; use one instance per discovery pass.
type AlreadySeenFilter struct {
	seen map[string]bool
}

// NewAlreadySeenFilter creates an empty already-seen filter
func NewAlreadySeenFilter() *AlreadySeenFilter {
	return &AlreadySeenFilter{seen: make(map[string]bool)}
}

// ShouldKeep returns false for URLs seen before and records new ones
func (f *AlreadySeenFilter) ShouldKeep(ctx context.Context, url string) (bool, error) {
	if f.seen[url] {
		return false, nil
	}
	f.seen[url] = true
	return true, nil
}

// Apply runs every filter over list in order, keeping the original ordering.
func Apply(ctx context.Context, list []URL, filters ...UrlFilter) ([]URL, error) {
	out := make([]URL, 0, len(list))
	for _, u := range list {
		keep := true
		for _, filter := range filters {
			ok, err := filter.ShouldKeep(ctx, u.Location)
			if err != nil {
				return nil, fmt.Errorf("filter %s: %w", u.Location, err)
			}
			if !ok {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, u)
		}
	}
	return out, nil
}

// Dedupe removes repeated locations keeping first-seen order
func Dedupe(list []URL) []URL {
	out, _ := Apply(context.Background(), list, NewAlreadySeenFilter())
	return out
}
