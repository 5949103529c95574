package relay

import (
	"fmt"
	"slices"
	"time"
)

const (
	defaultAppURI           = "https://loglink.it/"
	defaultReleasesURL      = "https://api.github.com/repos/hankhank10/loglink-plugin/releases/latest"
	defaultPendingTTL       = 2 * time.Minute
	defaultVersionCacheTTL  = time.Hour
	defaultPurgePolicy      = "immediate"
	defaultDeferredPurgeAge = 24 * time.Hour
)

// Config holds the relay engine configuration.
type Config struct {
	// AppURI is the public site address referenced in help and error
	// messages.
	AppURI string `yaml:"app_uri"`

	// GatedProviders lists providers that require a beta invite code
	// at signup.
	GatedProviders []string `yaml:"gated_providers"`

	// PendingTTL is how long a destructive-action confirmation stays
	// live before it lapses.
	PendingTTL time.Duration `yaml:"pending_ttl"`

	// PurgePolicy is "immediate" (delivered messages are deleted in
	// the drain transaction) or "deferred" (the housekeeping sweep
	// removes them later).
	PurgePolicy string `yaml:"purge_policy"`

	// DeferredPurgeAge is the minimum age of delivered messages the
	// housekeeping sweep removes under the deferred policy.
	DeferredPurgeAge time.Duration `yaml:"deferred_purge_age"`

	// ReleasesURL is the GitHub API endpoint consulted for the latest
	// plugin version.
	ReleasesURL string `yaml:"releases_url"`

	// VersionCacheTTL is how long a fetched latest-version value is
	// trusted before the next poll refreshes it.
	VersionCacheTTL time.Duration `yaml:"version_cache_ttl"`

	// RequireUploadKey refuses media relay for users who have not
	// registered their own image-host API key. Defaults to true.
	RequireUploadKey *bool `yaml:"require_upload_key"`
}

func (c *Config) defaults() {
	if c.AppURI == "" {
		c.AppURI = defaultAppURI
	}
	if c.PendingTTL == 0 {
		c.PendingTTL = defaultPendingTTL
	}
	if c.PurgePolicy == "" {
		c.PurgePolicy = defaultPurgePolicy
	}
	if c.DeferredPurgeAge == 0 {
		c.DeferredPurgeAge = defaultDeferredPurgeAge
	}
	if c.ReleasesURL == "" {
		c.ReleasesURL = defaultReleasesURL
	}
	if c.VersionCacheTTL == 0 {
		c.VersionCacheTTL = defaultVersionCacheTTL
	}
	if c.RequireUploadKey == nil {
		t := true
		c.RequireUploadKey = &t
	}
}

func (c *Config) validate() error {
	if c.PurgePolicy != "immediate" && c.PurgePolicy != "deferred" {
		return fmt.Errorf("relay: purge_policy must be \"immediate\" or \"deferred\", got %q", c.PurgePolicy)
	}
	if c.PendingTTL < 0 {
		return fmt.Errorf("relay: pending_ttl must be non-negative")
	}
	return nil
}

func (c *Config) purgeImmediately() bool {
	return c.PurgePolicy != "deferred"
}

func (c *Config) requireUploadKey() bool {
	return c.RequireUploadKey == nil || *c.RequireUploadKey
}

func (c *Config) gated(provider string) bool {
	return slices.Contains(c.GatedProviders, provider)
}
