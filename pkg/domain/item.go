package domain

import "time"

// Credential is the short-lived API token (client_id) required on every provider call.
// It is resolved once per run and passed explicitly; it is never persisted.
type Credential string

// String returns the raw token value.
func (c Credential) String() string {
	return string(c)
}

// Owner is the provider account whose items are enumerated
type Owner struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PermalinkURL string `json:"permalink_url,omitempty"`
	Kind         string `json:"kind,omitempty"`
}

// Item is a raw track record as returned by the provider API.
//
// The API omits fields freely, so every optional sub-record is a pointer or a slice
// and callers check presence before use.
type Item struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Duration     int64     `json:"duration"` // milliseconds
	CreatedAt    time.Time `json:"created_at"`
	PermalinkURL string    `json:"permalink_url"`
	Streamable   bool      `json:"streamable"`
	StreamURL    *string   `json:"stream_url,omitempty"`
	Media        *Media    `json:"media,omitempty"`
	Downloadable bool      `json:"downloadable"`
	DownloadURL  *string   `json:"download_url,omitempty"`
}

// Media holds the alternate encoded renditions of an item.
type Media struct {
	Transcodings []Transcoding `json:"transcodings,omitempty"`
}

// Transcoding is a single rendition with its delivery location and protocol tag.
type Transcoding struct {
	URL     string  `json:"url"`
	Preset  string  `json:"preset,omitempty"`
	Snipped bool    `json:"snipped,omitempty"`
	Format  *Format `json:"format,omitempty"`
}

// Format describes how a transcoding is delivered
type Format struct {
	Protocol string `json:"protocol"`
	MimeType string `json:"mime_type"`
}

// ProtocolProgressive marks a rendition served as a single downloadable stream.
const ProtocolProgressive = "progressive"

// Transcodings returns the item's renditions, or nil when the media block is absent.
func (i *Item) Transcodings() []Transcoding {
	if i == nil || i.Media == nil {
		return nil
	}
	return i.Media.Transcodings
}

// IsProgressive reports whether the rendition is delivered progressively.
func (t Transcoding) IsProgressive() bool {
	return t.Format != nil && t.Format.Protocol == ProtocolProgressive
}

// Page is one page of a cursor-linked collection response.
type Page struct {
	Collection []Item `json:"collection"`
	NextHref   string `json:"next_href,omitempty"`
}
