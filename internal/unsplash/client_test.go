package unsplash

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Client-ID test-key" {
			t.Errorf("unexpected authorization header: %q", got)
		}
		if got := r.URL.Query().Get("query"); got != "coffee" {
			t.Errorf("unexpected query: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results": [
			{"id": "abc", "description": "", "alt_description": "a cup of coffee",
			 "urls": {"thumb": "https://img/thumb", "regular": "https://img/regular"},
			 "links": {"html": "https://unsplash.com/photos/abc"},
			 "user": {"name": "Jane Doe"}}
		]}`))
	}))
	defer server.Close()

	client := NewClient("test-key")
	client.baseURL = server.URL

	photos, err := client.Search(context.Background(), "coffee", 10)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(photos) != 1 {
		t.Fatalf("expected 1 photo, got %d", len(photos))
	}
	p := photos[0]
	if p.ID != "abc" || p.Description != "a cup of coffee" || p.Photographer != "Jane Doe" {
		t.Fatalf("unexpected photo: %+v", p)
	}
	if p.ThumbURL != "https://img/thumb" || p.RegularURL != "https://img/regular" {
		t.Fatalf("unexpected urls: %+v", p)
	}
}

func TestSearch_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient("test-key")
	client.baseURL = server.URL

	if _, err := client.Search(context.Background(), "coffee", 10); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestSearch_RequiresConfig(t *testing.T) {
	client := NewClient("")
	if _, err := client.Search(context.Background(), "coffee", 10); err == nil {
		t.Fatal("expected error when access key missing")
	}

	client = NewClient("key")
	if _, err := client.Search(context.Background(), "", 10); err == nil {
		t.Fatal("expected error for empty query")
	}
}
