package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// unknownVersion is returned while no release lookup has succeeded.
// It compares lower than every real version, so it never nudges.
const unknownVersion = "0.0.0"

// VersionCache is a pull-through cache of the latest published plugin
// version. Poll handling reads it on every request; the fetch only
// happens when the cached value has aged past the TTL.
type VersionCache struct {
	url    string
	ttl    time.Duration
	client *http.Client

	mu        sync.Mutex
	latest    string
	fetchedAt time.Time
	fetching  bool

	now func() time.Time
}

// NewVersionCache creates a cache reading the latest release tag from
// the given GitHub API URL.
func NewVersionCache(url string, ttl time.Duration) *VersionCache {
	return &VersionCache{
		url:    url,
		ttl:    ttl,
		client: &http.Client{Timeout: 10 * time.Second},
		latest: unknownVersion,
		now:    time.Now,
	}
}

// Latest returns the cached latest version, refreshing it when stale.
// The lock is not held across the network fetch: while one caller
// refreshes, concurrent polls get the stale value immediately. A failed
// refresh keeps the previous value; lookups never fail a poll.
func (c *VersionCache) Latest(ctx context.Context) string {
	c.mu.Lock()
	if c.fetching || (c.latest != unknownVersion && c.now().Sub(c.fetchedAt) < c.ttl) {
		v := c.latest
		c.mu.Unlock()
		return v
	}
	c.fetching = true
	c.mu.Unlock()

	v, err := c.fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetching = false
	// Stale beats broken. Back off for a full TTL either way.
	c.fetchedAt = c.now()
	if err == nil {
		c.latest = v
	}
	return c.latest
}

// Refresh forces a fetch regardless of age. Used by the housekeeping
// scheduler so regular polls rarely pay for the lookup.
func (c *VersionCache) Refresh(ctx context.Context) error {
	v, err := c.fetch(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest = v
	c.fetchedAt = c.now()
	return nil
}

func (c *VersionCache) fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return "", fmt.Errorf("relay: build release request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("relay: fetch latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("relay: fetch latest release: status %d", resp.StatusCode)
	}

	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", fmt.Errorf("relay: decode release: %w", err)
	}
	if release.TagName == "" {
		return "", fmt.Errorf("relay: release has no tag name")
	}
	return release.TagName, nil
}

// versionNumber collapses a release tag like "v1.2.3" into a single
// comparable integer (major*10000 + minor*100 + patch). Unparseable
// tags collapse to 0.
func versionNumber(tag string) int {
	tag = strings.TrimPrefix(strings.TrimSpace(tag), "v")
	parts := strings.Split(tag, ".")
	if len(parts) != 3 {
		return 0
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0
	}
	patch, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0
	}
	return major*10000 + minor*100 + patch
}
