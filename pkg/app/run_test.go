package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveConfigPath_XDGConfigHome(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "loglink")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(cfgDir, "loglink.yaml")
	if err := os.WriteFile(cfgPath, []byte("version: \"1\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("XDG_CONFIG_HOME", dir)

	got, err := ResolveConfigPath()
	if err != nil {
		t.Fatalf("ResolveConfigPath: %v", err)
	}
	if got != cfgPath {
		t.Errorf("path = %q, want %q", got, cfgPath)
	}
}

func TestResolveConfigPath_NotFound(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Chdir(dir)

	if _, err := ResolveConfigPath(); err == nil {
		t.Fatal("expected an error when no config file exists")
	}
}

func TestDefaultDataDir_XDGDataHome(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
	got := DefaultDataDir()
	if got != filepath.Join("/tmp/xdg-data", "loglink") {
		t.Errorf("DefaultDataDir = %q", got)
	}
}

func TestRun_InvalidConfigPath(t *testing.T) {
	if _, err := New(RunParams{ConfigPath: "/nonexistent/loglink.yaml"}); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestRun_InvalidConfigContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "loglink.yaml")
	if err := os.WriteFile(path, []byte("{not yaml"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := New(RunParams{ConfigPath: path}); err == nil {
		t.Fatal("expected an error for invalid YAML")
	}
}

func TestRun_ValidationFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "loglink.yaml")
	if err := os.WriteFile(path, []byte("version: \"99\"\nmodules: {}\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := New(RunParams{ConfigPath: path})
	if err == nil {
		t.Fatal("expected a validation error")
	}
	if !strings.Contains(err.Error(), "version") {
		t.Errorf("error = %v, want mention of version", err)
	}
}
