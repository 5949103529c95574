// Package whatsapp implements the WhatsApp Cloud API channel.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxResponseBytes = 10 << 20

// Client is a thin HTTP wrapper around the WhatsApp Cloud API.
type Client struct {
	accessToken   string
	phoneNumberID string
	baseURL       string
	version       string
	http          *http.Client
}

// NewClient creates a new Cloud API client.
func NewClient(cfg Config) *Client {
	return &Client{
		accessToken:   cfg.AccessToken,
		phoneNumberID: cfg.PhoneNumberID,
		baseURL:       cfg.APIURL,
		version:       cfg.APIVersion,
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Send posts one outbound message to the /messages endpoint.
func (c *Client) Send(ctx context.Context, req sendRequest) (*sendResponse, error) {
	req.MessagingProduct = "whatsapp"

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: marshal send request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s/messages", c.baseURL, c.version, c.phoneNumberID)
	body, err := c.doJSON(ctx, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var res sendResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("whatsapp: decode send response: %w", err)
	}
	return &res, nil
}

// MediaInfo resolves a media ID to its download URL and MIME type.
func (c *Client) MediaInfo(ctx context.Context, mediaID string) (*mediaInfo, error) {
	url := fmt.Sprintf("%s/%s/%s", c.baseURL, c.version, mediaID)
	body, err := c.doJSON(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	var info mediaInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("whatsapp: decode media info: %w", err)
	}
	return &info, nil
}

// DownloadMedia fetches the content behind a MediaInfo URL. The URL is
// short-lived and requires the same bearer token.
func (c *Client) DownloadMedia(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: create download request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: download failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("whatsapp: download returned status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// doJSON performs one bearer-authenticated request and returns the raw
// body, mapping Graph error envelopes to APIError.
func (c *Client) doJSON(ctx context.Context, url string, payload io.Reader) ([]byte, error) {
	method := http.MethodGet
	if payload != nil {
		method = http.MethodPost
	}

	req, err := http.NewRequestWithContext(ctx, method, url, payload)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("whatsapp: read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var envelope apiError
		if err := json.Unmarshal(body, &envelope); err == nil && envelope.Err.Message != "" {
			return nil, &APIError{
				Code:    envelope.Err.Code,
				Type:    envelope.Err.Type,
				Message: envelope.Err.Message,
			}
		}
		return nil, fmt.Errorf("whatsapp: request returned status %d", resp.StatusCode)
	}

	return body, nil
}
