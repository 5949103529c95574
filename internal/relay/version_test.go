package relay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestVersionNumber(t *testing.T) {
	tests := []struct {
		tag  string
		want int
	}{
		{"v1.2.3", 10203},
		{"1.2.3", 10203},
		{"v0.0.7", 7},
		{"v2.0.0", 20000},
		{" v1.0.0 ", 10000},
		{"nonsense", 0},
		{"1.2", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := versionNumber(tt.tag); got != tt.want {
			t.Errorf("versionNumber(%q) = %d, want %d", tt.tag, got, tt.want)
		}
	}
}

func TestBehind(t *testing.T) {
	tests := []struct {
		client, latest string
		want           bool
	}{
		{"v1.0.0", "v1.0.1", true},
		{"v1.0.1", "v1.0.1", false},
		{"v1.1.0", "v1.0.9", false},
		{"v1.0.0", unknownVersion, false},
		{"garbage", "v1.0.0", false},
	}
	for _, tt := range tests {
		if got := behind(tt.client, tt.latest); got != tt.want {
			t.Errorf("behind(%q, %q) = %v, want %v", tt.client, tt.latest, got, tt.want)
		}
	}
}

func TestVersionCache_FetchesAndCaches(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tag_name": "v1.4.2"}`))
	}))
	defer srv.Close()

	c := NewVersionCache(srv.URL, time.Hour)

	if got := c.Latest(context.Background()); got != "v1.4.2" {
		t.Errorf("Latest = %q, want v1.4.2", got)
	}
	if got := c.Latest(context.Background()); got != "v1.4.2" {
		t.Errorf("Latest = %q, want v1.4.2", got)
	}
	if hits.Load() != 1 {
		t.Errorf("expected a single upstream fetch, got %d", hits.Load())
	}
}

func TestVersionCache_RefreshBypassesTTL(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"tag_name": "v2.0.0"}`))
	}))
	defer srv.Close()

	c := NewVersionCache(srv.URL, time.Hour)
	_ = c.Latest(context.Background())

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("expected 2 upstream fetches, got %d", hits.Load())
	}
}

func TestVersionCache_KeepsStaleOnError(t *testing.T) {
	fail := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if fail {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"tag_name": "v1.0.0"}`))
	}))
	defer srv.Close()

	c := NewVersionCache(srv.URL, time.Hour)
	if got := c.Latest(context.Background()); got != "v1.0.0" {
		t.Fatalf("Latest = %q, want v1.0.0", got)
	}

	// Expire the cache, then break the upstream.
	c.mu.Lock()
	c.fetchedAt = time.Now().Add(-2 * time.Hour)
	c.mu.Unlock()
	fail = true

	if got := c.Latest(context.Background()); got != "v1.0.0" {
		t.Errorf("stale value should survive a failed refresh, got %q", got)
	}
}

func TestVersionCache_ServesStaleWhileRefreshing(t *testing.T) {
	fetchStarted := make(chan struct{})
	release := make(chan struct{})
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			_, _ = w.Write([]byte(`{"tag_name": "v1.0.0"}`))
			return
		}
		close(fetchStarted)
		<-release
		_, _ = w.Write([]byte(`{"tag_name": "v1.1.0"}`))
	}))
	defer srv.Close()

	c := NewVersionCache(srv.URL, time.Hour)
	if got := c.Latest(context.Background()); got != "v1.0.0" {
		t.Fatalf("Latest = %q, want v1.0.0", got)
	}

	c.mu.Lock()
	c.fetchedAt = time.Now().Add(-2 * time.Hour)
	c.mu.Unlock()

	refreshed := make(chan string, 1)
	go func() {
		refreshed <- c.Latest(context.Background())
	}()
	<-fetchStarted

	// While the refresh is stuck upstream, other polls must not block
	// behind it.
	done := make(chan string, 1)
	go func() {
		done <- c.Latest(context.Background())
	}()
	select {
	case got := <-done:
		if got != "v1.0.0" {
			t.Errorf("concurrent Latest = %q, want stale v1.0.0", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Latest blocked behind an in-flight refresh")
	}

	close(release)
	if got := <-refreshed; got != "v1.1.0" {
		t.Errorf("refreshing Latest = %q, want v1.1.0", got)
	}
	if got := c.Latest(context.Background()); got != "v1.1.0" {
		t.Errorf("Latest after refresh = %q, want v1.1.0", got)
	}
}

func TestVersionCache_NeverNudgesBeforeFirstFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewVersionCache(srv.URL, time.Hour)
	latest := c.Latest(context.Background())
	if behind("v1.0.0", latest) {
		t.Error("no client should be nudged while the latest version is unknown")
	}
}
