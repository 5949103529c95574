// Package imgbb uploads images to imgbb.com using each user's own API
// key and exposes the resulting public URLs to the relay engine.
package imgbb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/hankhank10/loglink-server/internal/core"
	"gopkg.in/yaml.v3"
)

func init() {
	core.RegisterModule(&Module{})
}

const maxImageBytes = 32 << 20 // imgbb caps uploads at 32 MB

// ErrInvalidKey is returned when imgbb rejects the API key.
var ErrInvalidKey = errors.New("imgbb: invalid API key")

// Config holds the uploader settings.
type Config struct {
	// APIURL overrides the imgbb endpoint, used in tests.
	APIURL string `yaml:"api_url"`

	// Timeout bounds one upload request.
	Timeout time.Duration `yaml:"timeout"`

	// Expiration, in seconds, auto-deletes uploads after the given
	// time. Zero keeps them forever.
	Expiration int `yaml:"expiration"`
}

func (c *Config) defaults() {
	if c.APIURL == "" {
		c.APIURL = "https://api.imgbb.com/1/upload"
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
}

// Module hosts the uploader in the module system.
type Module struct {
	config Config
	logger *slog.Logger
	client *Client
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "upload.imgbb",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("imgbb: decode config: %w", err)
	}
	m.config.defaults()
	return nil
}

// Provision implements core.Provisioner. The uploader is registered as
// a service so the relay engine can pick it up at Start.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.logger = ctx.Logger
	m.client = NewClient(m.config)
	ctx.RegisterService("upload.images", m.client)
	return nil
}

// Client talks to the imgbb upload API.
type Client struct {
	apiURL     string
	expiration int
	http       *http.Client
}

// NewClient creates an uploader from the module config.
func NewClient(cfg Config) *Client {
	cfg.defaults()
	return &Client{
		apiURL:     cfg.APIURL,
		expiration: cfg.Expiration,
		http:       &http.Client{Timeout: cfg.Timeout},
	}
}

type uploadResponse struct {
	Success bool `json:"success"`
	Status  int  `json:"status"`
	Data    struct {
		URL        string `json:"url"`
		DisplayURL string `json:"display_url"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Upload pushes image bytes under the user's API key and returns the
// public URL.
func (c *Client) Upload(ctx context.Context, body io.Reader, name, key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("image", name)
	if err != nil {
		return "", fmt.Errorf("imgbb: build form: %w", err)
	}
	if _, err := io.Copy(part, io.LimitReader(body, maxImageBytes)); err != nil {
		return "", fmt.Errorf("imgbb: read image: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("imgbb: close form: %w", err)
	}

	endpoint := c.apiURL + "?key=" + url.QueryEscape(key)
	if c.expiration > 0 {
		endpoint += fmt.Sprintf("&expiration=%d", c.expiration)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return "", fmt.Errorf("imgbb: create request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("imgbb: upload failed: %w", err)
	}
	defer resp.Body.Close()

	var res uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("imgbb: decode response: %w", err)
	}

	switch {
	case res.Success && res.Data.URL != "":
		return res.Data.URL, nil
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusForbidden:
		return "", ErrInvalidKey
	default:
		return "", fmt.Errorf("imgbb: upload rejected: %s (status %d)", res.Error.Message, resp.StatusCode)
	}
}

// ValidateKey uploads a one-pixel probe image to confirm the key works.
func (c *Client) ValidateKey(ctx context.Context, key string) error {
	_, err := c.Upload(ctx, bytes.NewReader(probePixel), "probe.gif", key)
	return err
}

// probePixel is a 1x1 transparent GIF.
var probePixel = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00,
	0x80, 0x00, 0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0x21,
	0xf9, 0x04, 0x01, 0x00, 0x00, 0x00, 0x00, 0x2c, 0x00, 0x00,
	0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x44,
	0x01, 0x00, 0x3b,
}
