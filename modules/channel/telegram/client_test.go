package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestClient_SendMessage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottesttoken/sendMessage" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req SendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.ChatID != 42 || req.Text != "hello" {
			t.Errorf("request = %+v", req)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]any{"message_id": 7},
		})
	}))
	defer srv.Close()

	c := NewClient("testtoken", srv.URL)
	msg, err := c.SendMessage(context.Background(), SendMessageRequest{ChatID: 42, Text: "hello"})
	if err != nil {
		t.Fatalf("send message: %v", err)
	}
	if msg.MessageID != 7 {
		t.Errorf("message id = %d, want 7", msg.MessageID)
	}
}

func TestClient_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":          false,
			"error_code":  400,
			"description": "Bad Request: can't parse entities",
		})
	}))
	defer srv.Close()

	c := NewClient("testtoken", srv.URL)
	_, err := c.SendMessage(context.Background(), SendMessageRequest{ChatID: 1, Text: "*broken"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != 400 {
		t.Errorf("code = %d, want 400", apiErr.Code)
	}
}

func TestClient_RateLimitRetry(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"ok":          false,
				"error_code":  429,
				"description": "Too Many Requests",
				"parameters":  map[string]any{"retry_after": 0},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]any{"message_id": 1},
		})
	}))
	defer srv.Close()

	c := NewClient("testtoken", srv.URL)
	if _, err := c.SendMessage(context.Background(), SendMessageRequest{ChatID: 1, Text: "retry"}); err != nil {
		t.Fatalf("send message: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestClient_GetFileAndDownload(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bottesttoken/getFile":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"ok":     true,
				"result": map[string]any{"file_id": "abc", "file_path": "photos/file_1.jpg"},
			})
		case "/file/bottesttoken/photos/file_1.jpg":
			_, _ = w.Write([]byte("jpegbytes"))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient("testtoken", srv.URL)
	file, err := c.GetFile(context.Background(), "abc")
	if err != nil {
		t.Fatalf("getFile: %v", err)
	}
	if file.FilePath != "photos/file_1.jpg" {
		t.Fatalf("file path = %q", file.FilePath)
	}

	body, err := c.DownloadFile(context.Background(), file.FilePath)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer body.Close()

	buf := make([]byte, 16)
	n, _ := body.Read(buf)
	if string(buf[:n]) != "jpegbytes" {
		t.Errorf("content = %q", buf[:n])
	}
}
