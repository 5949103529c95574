package whatsapp

import (
	"errors"
	"fmt"
	"net/url"
)

// Config holds the WhatsApp Cloud API channel configuration.
type Config struct {
	// AccessToken is the permanent Cloud API bearer token.
	AccessToken string `yaml:"access_token"`

	// PhoneNumberID is the sender phone number registered with the
	// Cloud API.
	PhoneNumberID string `yaml:"phone_number_id"`

	// VerifyToken answers the hub.verify_token subscription handshake.
	VerifyToken string `yaml:"verify_token"`

	// AppSecret, when set, enables X-Hub-Signature-256 validation of
	// webhook payloads.
	AppSecret string `yaml:"app_secret"`

	// APIURL overrides the Graph API base, used in tests.
	APIURL string `yaml:"api_url"`

	// APIVersion is the Graph API version segment.
	APIVersion string `yaml:"api_version"`
}

// defaults applies default values to unset fields.
func (c *Config) defaults() {
	if c.APIURL == "" {
		c.APIURL = "https://graph.facebook.com"
	}
	if c.APIVersion == "" {
		c.APIVersion = "v19.0"
	}
}

// validate checks field constraints beyond basic presence checks.
func (c *Config) validate() error {
	if c.VerifyToken == "" {
		return errors.New("whatsapp: verify_token is required")
	}
	if c.APIURL != "" {
		u, err := url.Parse(c.APIURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("whatsapp: api_url must be a valid http/https URL, got %q", c.APIURL)
		}
	}
	return nil
}
