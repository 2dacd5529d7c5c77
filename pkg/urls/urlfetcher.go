package urls

import "context"

// URL represents a URL discovered on a page
type URL struct {
	Location string // absolute URL
	Source   string // name of the strategy that found it (optional)
}

// URLsFetcher defines the interface for components that discover URLs on a page
type URLsFetcher interface {
	Fetch(ctx context.Context, pageURL string) ([]URL, error)
}

// Locations returns the Location of every URL, skipping empty ones
func Locations(list []URL) []string {
	out := make([]string, 0, len(list))
	for _, u := range list {
		if u.Location != "" {
			out = append(out, u.Location)
		}
	}
	return out
}
