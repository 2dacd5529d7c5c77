package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "0:00"},
		{59_000, "0:59"},
		{61_000, "1:01"},
		{3_599_999, "59:59"},
		{3_600_000, "1:00:00"},
		{3_725_000, "1:02:05"},
		{36_000_000, "10:00:00"},
		{-5, "0:00"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.ms); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestEpisodeRecord_IncludesNullFields(t *testing.T) {
	ep := NewEpisode(Item{
		ID:           42,
		Title:        "Pilot",
		Duration:     61_000,
		CreatedAt:    time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		PermalinkURL: "https://example.com/pilot",
	}, nil, nil, []Chapter{})

	rec := ep.Record()

	for _, key := range []string{"streamUrl", "showNotes", "chapters"} {
		v, ok := rec[key]
		if !ok {
			t.Errorf("expected key %q to be present", key)
			continue
		}
		if v != nil {
			t.Errorf("expected %q to be nil, got %v", key, v)
		}
	}
	if _, ok := rec[KeyCreatedDate]; ok {
		t.Error("record should not carry created_date")
	}
	if rec["durationFormatted"] != "1:01" {
		t.Errorf("durationFormatted = %v", rec["durationFormatted"])
	}
	if id, ok := rec.ID(); !ok || id != 42 {
		t.Errorf("ID() = %d, %v", id, ok)
	}
}

func TestRecordDecode_RoundTripsThroughJSON(t *testing.T) {
	stream := "https://cdn.example.com/a.mp3"
	ep := NewEpisode(Item{
		ID:        7,
		Title:     "Seven",
		CreatedAt: time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC),
	}, &stream, nil, []Chapter{{Start: "00:01:00", Title: "Intro"}})

	raw, err := json.Marshal(ep.Record())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var stored Record
	if err := json.Unmarshal(raw, &stored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	got, err := stored.Decode()
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.ID != 7 || got.StreamURL == nil || *got.StreamURL != stream {
		t.Errorf("unexpected episode: %+v", got)
	}
	if len(got.Chapters) != 1 || got.Chapters[0].Title != "Intro" {
		t.Errorf("chapters = %+v", got.Chapters)
	}
	if !got.CreatedAt.Equal(ep.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, ep.CreatedAt)
	}
}

func TestRecordID_NumericForms(t *testing.T) {
	cases := []Record{
		{KeyID: int64(9)},
		{KeyID: 9},
		{KeyID: float64(9)},
		{KeyID: json.Number("9")},
		{KeyID: "9"},
	}
	for _, rec := range cases {
		if id, ok := rec.ID(); !ok || id != 9 {
			t.Errorf("ID() for %T = %d, %v", rec[KeyID], id, ok)
		}
	}
	if _, ok := (Record{"title": "x"}).ID(); ok {
		t.Error("expected missing id to report false")
	}
}

func TestSortNewestFirst(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	eps := []Episode{
		{ID: 1, CreatedAt: base},
		{ID: 2, CreatedAt: base.Add(48 * time.Hour)},
		{ID: 3, CreatedAt: base.Add(24 * time.Hour)},
	}
	SortNewestFirst(eps)
	if eps[0].ID != 2 || eps[1].ID != 3 || eps[2].ID != 1 {
		t.Errorf("unexpected order: %d %d %d", eps[0].ID, eps[1].ID, eps[2].ID)
	}
}

func TestLocalFilename(t *testing.T) {
	ep := Episode{
		ID:        1234,
		Title:     "Café: the/new  Ümläut?",
		CreatedAt: time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
	}
	got := ep.LocalFilename("mp3")
	want := "2024-05-06_07-08-09_Cafe thenew Umlaut_1234.mp3"
	if got != want {
		t.Errorf("LocalFilename() = %q, want %q", got, want)
	}
}

func TestSanitizeTitle_CapsLength(t *testing.T) {
	got := SanitizeTitle(strings.Repeat("a", 250))
	if n := len([]rune(got)); n != maxTitleRunes {
		t.Errorf("len = %d, want %d", n, maxTitleRunes)
	}
	if SanitizeTitle(":/:") != "episode" {
		t.Errorf("expected fallback for empty title")
	}
}
