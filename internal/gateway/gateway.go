package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/hankhank10/loglink-server/internal/core"
	"github.com/hankhank10/loglink-server/internal/relay"
	"github.com/hankhank10/loglink-server/internal/store"
	"gopkg.in/yaml.v3"
)

func init() {
	core.RegisterModule(&Gateway{})
}

// Version is stamped by the build; the health endpoints report it.
var Version = "dev"

// Gateway is the HTTP module. It exposes the poll endpoint, provider
// webhooks, health, metrics, and the admin surface. It is a leaf
// module; nothing imports it.
type Gateway struct {
	config     Config
	appCtx     *core.AppContext
	logger     *slog.Logger
	server     *http.Server
	metrics    *Metrics
	dispatcher *WebhookDispatcher
	tracing    func(http.Handler) http.Handler

	// Resolved at Start() via the service registry.
	engine *relay.Engine
	poll   *pollHandler
	admin  *adminHandler
	health *healthHandler
}

// ModuleInfo implements core.Module.
func (g *Gateway) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "gateway.http",
		New: func() core.Module { return &Gateway{} },
	}
}

// Configure implements core.Configurable.
func (g *Gateway) Configure(node *yaml.Node) error {
	if err := node.Decode(&g.config); err != nil {
		return err
	}
	g.config.defaults()
	return nil
}

// Provision implements core.Provisioner. The metrics collector and
// webhook dispatcher are registered here so the relay engine and the
// channel modules can resolve them at Start.
func (g *Gateway) Provision(ctx *core.AppContext) error {
	g.appCtx = ctx
	g.logger = ctx.Logger
	g.metrics = NewMetrics()
	g.dispatcher = NewWebhookDispatcher(g.logger, g.metrics)

	ctx.RegisterService("gateway.metrics", g.metrics)
	ctx.RegisterService("gateway.webhooks", g.dispatcher)
	return nil
}

// Validate implements core.Validator.
func (g *Gateway) Validate() error {
	if _, err := net.ResolveTCPAddr("tcp", g.config.Bind); err != nil {
		return errors.New("gateway: invalid bind address: " + g.config.Bind)
	}
	return nil
}

// Start implements core.Starter. It resolves the relay engine and the
// stores, then brings the listener up.
func (g *Gateway) Start() error {
	svc, ok := g.appCtx.Service("relay.engine")
	if !ok {
		return errors.New("gateway: relay.engine service not available")
	}
	engine, ok := svc.(*relay.Engine)
	if !ok {
		return fmt.Errorf("gateway: relay.engine has unexpected type %T", svc)
	}
	g.engine = engine

	users, err := resolveAs[store.IdentityStore](g.appCtx, "store.users")
	if err != nil {
		return err
	}
	queue, err := resolveAs[store.MessageQueue](g.appCtx, "store.queue")
	if err != nil {
		return err
	}
	betaCodes, err := resolveAs[store.BetaCodeStore](g.appCtx, "store.betacodes")
	if err != nil {
		return err
	}

	if svc, ok := g.appCtx.Service("telemetry.http_middleware"); ok {
		if mw, ok := svc.(func(http.Handler) http.Handler); ok {
			g.tracing = mw
		}
	}

	g.poll = &pollHandler{engine: engine, logger: g.logger, metrics: g.metrics}
	g.admin = &adminHandler{engine: engine, betaCodes: betaCodes, logger: g.logger}
	g.health = &healthHandler{
		users:    users,
		queue:    queue,
		webhooks: g.dispatcher,
		logger:   g.logger,
		started:  time.Now(),
		version:  Version,
	}

	g.server = &http.Server{
		Addr:         g.config.Bind,
		Handler:      g.buildRouter(),
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.config.Bind)
	if err != nil {
		return errors.New("gateway: listen failed: " + err.Error())
	}

	go func() {
		g.logger.Info("gateway listening", "addr", g.config.Bind)
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop implements core.Stopper. Graceful shutdown with the configured
// timeout.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	return g.server.Shutdown(shutdownCtx)
}

func resolveAs[T any](ctx *core.AppContext, name string) (T, error) {
	var zero T
	svc, ok := ctx.Service(name)
	if !ok {
		return zero, fmt.Errorf("gateway: %s service not available", name)
	}
	typed, ok := svc.(T)
	if !ok {
		return zero, fmt.Errorf("gateway: %s has unexpected type %T", name, svc)
	}
	return typed, nil
}
