package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Chapter is a timestamped marker parsed from an episode description.
type Chapter struct {
	Start string `json:"start" bson:"start"` // HH:MM:SS
	Title string `json:"title" bson:"title"`
}

// Episode is the processed, persisted form of a streamable item.
type Episode struct {
	ID                int64     `json:"id" bson:"id"`
	Title             string    `json:"title" bson:"title"`
	Description       string    `json:"description" bson:"description"`
	Duration          int64     `json:"duration" bson:"duration"`
	DurationFormatted string    `json:"durationFormatted" bson:"durationFormatted"`
	CreatedAt         time.Time `json:"createdAt" bson:"createdAt"`
	Permalink         string    `json:"permalink" bson:"permalink"`

	// StreamURL is nil when no media location could be resolved.
	StreamURL *string `json:"streamUrl" bson:"streamUrl"`
	// ShowNotes is the external reference link found in the description.
	ShowNotes *string   `json:"showNotes" bson:"showNotes"`
	Chapters  []Chapter `json:"chapters" bson:"chapters"`

	CreatedDate time.Time `json:"created_date" bson:"created_date"`
	UpdatedDate time.Time `json:"updated_date" bson:"updated_date"`
}

// Record keys. Only the bookkeeping keys are interpreted by stores.
const (
	KeyID          = "id"
	KeyCreatedDate = "created_date"
	KeyUpdatedDate = "updated_date"
)

// Record is the document form of an Episode. Stores merge records key by key:
// every key present on an incoming record replaces the stored value.
type Record map[string]any

// NewEpisode assembles an Episode from an item and its extracted metadata.
func NewEpisode(item Item, streamURL, showNotes *string, chapters []Chapter) Episode {
	if len(chapters) == 0 {
		chapters = nil
	}
	return Episode{
		ID:                item.ID,
		Title:             item.Title,
		Description:       item.Description,
		Duration:          item.Duration,
		DurationFormatted: FormatDuration(item.Duration),
		CreatedAt:         item.CreatedAt,
		Permalink:         item.PermalinkURL,
		StreamURL:         streamURL,
		ShowNotes:         showNotes,
		Chapters:          chapters,
	}
}

// Record returns the full document for the episode. Nullable fields are present as nil so
// that re-processing an item overwrites every field. Bookkeeping dates are owned by the store
// and are not included.
func (e Episode) Record() Record {
	var streamURL, showNotes any
	if e.StreamURL != nil {
		streamURL = *e.StreamURL
	}
	if e.ShowNotes != nil {
		showNotes = *e.ShowNotes
	}
	var chapters any
	if len(e.Chapters) > 0 {
		list := make([]any, 0, len(e.Chapters))
		for _, c := range e.Chapters {
			list = append(list, map[string]any{"start": c.Start, "title": c.Title})
		}
		chapters = list
	}

	return Record{
		KeyID:               e.ID,
		"title":             e.Title,
		"description":       e.Description,
		"duration":          e.Duration,
		"durationFormatted": e.DurationFormatted,
		"createdAt":         e.CreatedAt.UTC().Format(time.RFC3339),
		"permalink":         e.Permalink,
		"streamUrl":         streamURL,
		"showNotes":         showNotes,
		"chapters":          chapters,
	}
}

// ID returns the record identity. Numbers decoded from JSON arrive as float64 or
// json.Number, so all numeric forms are accepted.
func (r Record) ID() (int64, bool) {
	switch v := r[KeyID].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case float64:
		return int64(v), true
	case json.Number:
		id, err := v.Int64()
		return id, err == nil
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		return id, err == nil
	default:
		return 0, false
	}
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Decode converts a stored record back into an Episode.
func (r Record) Decode() (*Episode, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	var ep Episode
	if err := dec.Decode(&ep); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &ep, nil
}

// SortNewestFirst orders episodes by creation timestamp, most recent first.
func SortNewestFirst(episodes []Episode) {
	sort.SliceStable(episodes, func(i, j int) bool {
		return episodes[i].CreatedAt.After(episodes[j].CreatedAt)
	})
}

// FormatDuration renders milliseconds as H:MM:SS, or M:SS below one hour.
func FormatDuration(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	total := ms / 1000
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
