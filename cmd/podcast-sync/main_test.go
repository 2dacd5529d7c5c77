package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"podcast-sync/pkg/domain"
)

const testToken = "abcdefghijklmnopqrstuvwxyz012345"

// fakeProvider serves a profile page, a script bundle, and the API endpoints one sync needs
func fakeProvider(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server

	requireToken := func(w http.ResponseWriter, r *http.Request) bool {
		if r.URL.Query().Get("client_id") != testToken {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return false
		}
		return true
	}
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}

	mux.HandleFunc("/show", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><script src="/assets/app-1.js"></script></head><body></body></html>`)
	})
	mux.HandleFunc("/assets/app-1.js", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `var cfg={client_id:"%s"};`, testToken)
	})
	mux.HandleFunc("/resolve", func(w http.ResponseWriter, r *http.Request) {
		if !requireToken(w, r) {
			return
		}
		writeJSON(w, map[string]any{"id": 77, "username": "show", "kind": "user"})
	})
	mux.HandleFunc("/users/77/tracks", func(w http.ResponseWriter, r *http.Request) {
		if !requireToken(w, r) {
			return
		}
		writeJSON(w, map[string]any{
			"collection": []map[string]any{
				{
					"id": 1, "title": "Pilot", "duration": 3723000,
					"created_at": "2024-03-01T10:00:00Z", "permalink_url": srv.URL + "/show/pilot",
					"streamable": true, "stream_url": srv.URL + "/stream/1",
				},
				{
					"id": 2, "title": "Private", "created_at": "2024-04-01T10:00:00Z", "streamable": false,
				},
			},
		})
	})
	mux.HandleFunc("/tracks/1", func(w http.ResponseWriter, r *http.Request) {
		if !requireToken(w, r) {
			return
		}
		writeJSON(w, map[string]any{
			"id": 1, "title": "Pilot", "duration": 3723000,
			"description":   "Show notes: example.com/pilot\n(00:00:30) Welcome",
			"created_at":    "2024-03-01T10:00:00Z",
			"permalink_url": srv.URL + "/show/pilot",
			"streamable":    true,
			"stream_url":    srv.URL + "/stream/1",
		})
	})
	mux.HandleFunc("/stream/1", func(w http.ResponseWriter, r *http.Request) {
		if !requireToken(w, r) {
			return
		}
		writeJSON(w, map[string]any{"url": "https://cdn.example.com/pilot.mp3"})
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeTestConfig(t *testing.T, dir, serverURL string) string {
	t.Helper()
	for _, key := range []string{"PODCAST_SYNC_PROFILE_URL", "PODCAST_SYNC_STORE_PATH", "PODCAST_SYNC_LOG_LEVEL"} {
		t.Setenv(key, "")
	}
	path := filepath.Join(dir, "podcast-sync.toml")
	content := fmt.Sprintf(`[provider]
profile_url = %q
api_base = %q

[store]
backend = "json"
path = %q
sqlite_path = %q

[logging]
level = "error"
`, serverURL+"/show", serverURL, filepath.Join(dir, "episodes.json"), filepath.Join(dir, "episodes.db"))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSyncListAndMigrate(t *testing.T) {
	srv := fakeProvider(t)
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, dir, srv.URL)

	out, err := runCLI(t, "--config", cfgPath, "sync", "--json")
	if err != nil {
		t.Fatalf("sync: %v\n%s", err, out)
	}
	var synced []domain.Episode
	if err := json.Unmarshal([]byte(out), &synced); err != nil {
		t.Fatalf("decode sync output: %v\n%s", err, out)
	}
	if len(synced) != 1 {
		t.Fatalf("expected 1 synced episode, got %d", len(synced))
	}
	ep := synced[0]
	if ep.ID != 1 || ep.DurationFormatted != "1:02:03" {
		t.Errorf("unexpected episode: %+v", ep)
	}
	if ep.CreatedDate.IsZero() || ep.UpdatedDate.IsZero() {
		t.Errorf("sync output missing bookkeeping dates: created=%v updated=%v", ep.CreatedDate, ep.UpdatedDate)
	}
	if ep.StreamURL == nil || *ep.StreamURL != "https://cdn.example.com/pilot.mp3" {
		t.Errorf("streamUrl = %v", ep.StreamURL)
	}
	if ep.ShowNotes == nil || *ep.ShowNotes != "https://example.com/pilot" {
		t.Errorf("showNotes = %v", ep.ShowNotes)
	}
	if len(ep.Chapters) != 1 || ep.Chapters[0].Title != "Welcome" {
		t.Errorf("chapters = %+v", ep.Chapters)
	}

	out, err = runCLI(t, "--config", cfgPath, "list", "--json")
	if err != nil {
		t.Fatalf("list: %v\n%s", err, out)
	}
	var listed []domain.Episode
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("decode list output: %v\n%s", err, out)
	}
	if len(listed) != 1 || listed[0].CreatedDate.IsZero() {
		t.Fatalf("stored episodes = %+v", listed)
	}

	out, err = runCLI(t, "--config", cfgPath, "list", "--table")
	if err != nil {
		t.Fatalf("list --table: %v", err)
	}
	if !strings.Contains(out, "Pilot") || !strings.Contains(out, "1:02:03") {
		t.Errorf("table output missing episode:\n%s", out)
	}

	out, err = runCLI(t, "--config", cfgPath, "migrate", "--to", "sqlite")
	if err != nil {
		t.Fatalf("migrate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Copied 1 of 1") {
		t.Errorf("migrate output = %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "episodes.db")); err != nil {
		t.Errorf("sqlite store not created: %v", err)
	}
}

func TestSync_RequiresProfile(t *testing.T) {
	dir := t.TempDir()
	for _, key := range []string{"PODCAST_SYNC_PROFILE_URL", "PODCAST_SYNC_STORE_PATH", "PODCAST_SYNC_LOG_LEVEL"} {
		t.Setenv(key, "")
	}
	cfgPath := filepath.Join(dir, "podcast-sync.toml")
	if err := os.WriteFile(cfgPath, []byte("[store]\npath = \""+filepath.Join(dir, "e.json")+"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLI(t, "--config", cfgPath, "sync"); err == nil || !strings.Contains(err.Error(), "profile_url") {
		t.Fatalf("expected profile_url error, got %v", err)
	}
}

func TestMigrate_RejectsSameBackend(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, dir, "https://example.com")
	if _, err := runCLI(t, "--config", cfgPath, "migrate", "--to", "json"); err == nil {
		t.Fatal("expected error when target equals source")
	}
}

func TestConfigInit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "conf", "podcast-sync.toml")

	out, err := runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) || !strings.Contains(out, "fallback_tokens starts empty") {
		t.Errorf("output = %q", out)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read written config: %v", err)
	}
	if !strings.Contains(string(data), "api_base") {
		t.Errorf("written config missing provider section:\n%s", data)
	}

	if _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("second init without --overwrite should fail")
	}
	if _, err := runCLI(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("init --overwrite: %v", err)
	}
}

func TestConfigShow(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, dir, "https://example.com")

	out, err := runCLI(t, "--config", cfgPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.HasPrefix(out, "# loaded from "+cfgPath) {
		t.Errorf("missing source line:\n%s", out)
	}
	if !strings.Contains(out, "https://example.com/show") {
		t.Errorf("profile url not shown:\n%s", out)
	}
}

func TestRenderEpisodes(t *testing.T) {
	notes := "https://example.com/notes"
	episodes := []domain.Episode{
		{ID: 12, Title: "With notes", DurationFormatted: "12:00", ShowNotes: &notes,
			Chapters: []domain.Chapter{{Start: "00:00:10", Title: "Intro"}}},
		{ID: 13, Title: "Bare"},
	}
	got := renderEpisodes(episodes)
	for _, want := range []string{"Show notes", "With notes", notes, "12:00", "Bare"} {
		if !strings.Contains(got, want) {
			t.Errorf("table missing %q:\n%s", want, got)
		}
	}
	if strings.Index(got, "With notes") > strings.Index(got, "Bare") {
		t.Errorf("rows reordered:\n%s", got)
	}
}
