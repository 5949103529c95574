// Package app provides the shared entry point for the loglink binary.
package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hankhank10/loglink-server/internal/config"
	"github.com/hankhank10/loglink-server/internal/core"
)

// RunParams configures the main application loop.
type RunParams struct {
	// ConfigPath is an explicit path to the YAML configuration file.
	// If empty, ResolveConfigPath is called automatically.
	ConfigPath string

	// Version, Commit, and Date are injected at build time via ldflags.
	Version string
	Commit  string
	Date    string

	// DataDir overrides the default persistent data directory.
	DataDir string

	// LogLevel sets the minimum log level. Defaults to slog.LevelInfo.
	LogLevel slog.Level
}

// Runner holds a fully loaded application. It separates module loading
// from Start so the binary can run either in the foreground or under a
// system service manager.
type Runner struct {
	app    *core.App
	logger *slog.Logger

	// IDs are the module IDs resolved from configuration, in load order.
	IDs []string
}

// New loads and validates configuration, provisions all configured
// modules, and returns a Runner ready to Start.
func New(params RunParams) (*Runner, error) {
	cfgPath := params.ConfigPath
	if cfgPath == "" {
		resolved, err := ResolveConfigPath()
		if err != nil {
			return nil, err
		}
		cfgPath = resolved
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: params.LogLevel,
	}))

	dataDir := params.DataDir
	if dataDir == "" {
		dataDir = cfg.DataDir
	}
	if dataDir == "" {
		dataDir = DefaultDataDir()
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory %s: %w", dataDir, err)
	}

	appCtx := core.NewAppContext(logger, dataDir)
	appCtx = appCtx.WithModuleConfigs(cfg.Modules)

	// Register the config path so modules can discover it.
	appCtx.RegisterService("config.path", cfgPath)

	application := core.NewApp(appCtx)
	ids := config.Resolve(cfg)
	if err := application.LoadModules(ids); err != nil {
		return nil, err
	}

	logger.Info("loglink configured",
		"version", params.Version,
		"modules", len(ids),
		"data_dir", dataDir)

	return &Runner{app: application, logger: logger, IDs: ids}, nil
}

// Start starts all loaded modules and returns without blocking.
func (r *Runner) Start() error {
	return r.app.Start()
}

// Stop stops all started modules in reverse order.
func (r *Runner) Stop() {
	r.app.Stop()
}

// Run starts all modules and blocks until a shutdown signal is received.
func (r *Runner) Run() error {
	return r.app.Run()
}

// Run loads configuration, starts all modules, and blocks until a
// shutdown signal is received.
func Run(params RunParams) error {
	runner, err := New(params)
	if err != nil {
		return err
	}
	return runner.Run()
}

// ResolveConfigPath searches for a config file in standard locations.
// Search order: $XDG_CONFIG_HOME/loglink/loglink.yaml → ~/.config/loglink/loglink.yaml → ./loglink.yaml
func ResolveConfigPath() (string, error) {
	var candidates []string

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "loglink", "loglink.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "loglink", "loglink.yaml"))
	}

	candidates = append(candidates, "loglink.yaml")

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no configuration file found (searched: %v)", candidates)
}

// DefaultDataDir returns the default persistent data directory.
// Uses $XDG_DATA_HOME/loglink if set, otherwise ~/.local/share/loglink.
func DefaultDataDir() string {
	if dir, ok := os.LookupEnv("XDG_DATA_HOME"); ok {
		return filepath.Join(dir, "loglink")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "loglink")
}
