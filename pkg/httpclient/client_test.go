package httpclient

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
)

func TestHTTPClient_SetsBrowserHeaders(t *testing.T) {
	var gotUA, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	client := NewClient(BrowserClient, WithUserAgent("test-agent/1.0"))
	if _, err := client.GetBytes(context.Background(), server.URL); err != nil {
		t.Fatalf("GetBytes() error = %v", err)
	}

	if gotUA != "test-agent/1.0" {
		t.Errorf("User-Agent = %q", gotUA)
	}
	if !strings.HasPrefix(gotAccept, "text/html") {
		t.Errorf("Accept = %q, want text/html first", gotAccept)
	}
}

func TestHTTPClient_DecodesGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write([]byte(`{"name":"gzip"}`))
	zw.Close()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		w.Write(buf.Bytes())
	}))
	defer server.Close()

	var out struct{ Name string }
	if err := NewClient(APIClient).GetJSON(context.Background(), server.URL, &out); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if out.Name != "gzip" {
		t.Errorf("Name = %q", out.Name)
	}
}

func TestHTTPClient_DecodesBrotli(t *testing.T) {
	var buf bytes.Buffer
	bw := brotli.NewWriter(&buf)
	bw.Write([]byte(`{"name":"br"}`))
	bw.Close()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "br")
		w.Write(buf.Bytes())
	}))
	defer server.Close()

	var out struct{ Name string }
	if err := NewClient(APIClient).GetJSON(context.Background(), server.URL, &out); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if out.Name != "br" {
		t.Errorf("Name = %q", out.Name)
	}
}

func TestHTTPClient_NonSuccessReturnsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("nope"))
	}))
	defer server.Close()

	_, err := NewClient(APIClient).GetBytes(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Expected error for 403 status, got nil")
	}
	if StatusCode(err) != http.StatusForbidden {
		t.Errorf("StatusCode(err) = %d", StatusCode(err))
	}
	if !strings.Contains(err.Error(), "nope") {
		t.Errorf("expected body snippet in error, got %v", err)
	}
}

func TestHTTPClient_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	var out map[string]any
	err := NewClient(APIClient).GetJSON(context.Background(), server.URL, &out)
	if err == nil || !strings.Contains(err.Error(), "json parse error") {
		t.Errorf("expected json parse error, got %v", err)
	}
}

func TestHTTPClient_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewClient(BrowserClient).GetBytes(ctx, server.URL); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestHTTPClient_ErrorsHideCredential(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))

	_, err := NewClient(APIClient).GetBytes(context.Background(), server.URL+"/tracks/1?client_id=s3cr3t&limit=5")
	if err == nil {
		t.Fatal("Expected error for 401 status, got nil")
	}
	if strings.Contains(err.Error(), "s3cr3t") {
		t.Errorf("credential leaked into status error: %v", err)
	}
	if !strings.Contains(err.Error(), "limit=5") || !strings.Contains(err.Error(), "client_id=REDACTED") {
		t.Errorf("expected redacted URL in error, got %v", err)
	}

	server.Close()
	_, err = NewClient(APIClient).GetBytes(context.Background(), server.URL+"/tracks/1?client_id=s3cr3t")
	if err == nil {
		t.Fatal("Expected transport error after server close, got nil")
	}
	if strings.Contains(err.Error(), "s3cr3t") {
		t.Errorf("credential leaked into transport error: %v", err)
	}
}

func TestRedactURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://api.example.com/tracks/1?client_id=abc", "https://api.example.com/tracks/1?client_id=REDACTED"},
		{"https://api.example.com/tracks/1?x=1", "https://api.example.com/tracks/1?x=1"},
		{"https://api.example.com/tracks/1", "https://api.example.com/tracks/1"},
		{"://bad", "://bad"},
	}
	for _, tt := range tests {
		if got := RedactURL(tt.in); got != tt.want {
			t.Errorf("RedactURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
