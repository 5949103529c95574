package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hankhank10/loglink-server/internal/core"
	"github.com/hankhank10/loglink-server/internal/relay"
	"gopkg.in/yaml.v3"
)

func init() {
	core.RegisterModule(&Module{})
}

// Config holds the housekeeping schedules.
type Config struct {
	// PurgeSchedule is the cron expression for the delivered-message
	// sweep. Empty uses the job default.
	PurgeSchedule string `yaml:"purge_schedule"`

	// PurgeMaxAge is how long delivered messages are retained before
	// the sweep removes them.
	PurgeMaxAge time.Duration `yaml:"purge_max_age"`

	// VersionSchedule is the cron expression for the release cache
	// refresh. Empty uses the job default.
	VersionSchedule string `yaml:"version_schedule"`
}

func (c *Config) defaults() {
	if c.PurgeMaxAge <= 0 {
		c.PurgeMaxAge = 24 * time.Hour
	}
}

// Module runs the background housekeeping scheduler.
type Module struct {
	config    Config
	appCtx    *core.AppContext
	logger    *slog.Logger
	scheduler *Scheduler
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "cron.housekeeping",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return err
	}
	m.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.appCtx = ctx
	m.logger = ctx.Logger
	m.scheduler = NewScheduler(m.logger)
	return nil
}

// Start implements core.Starter. Jobs resolve their collaborators from
// the service registry, so this must run after the store and relay
// modules have provisioned.
func (m *Module) Start() error {
	svc, ok := m.appCtx.Service("store.queue")
	if !ok {
		return errors.New("cron: store.queue service not available")
	}
	queue, ok := svc.(DeliveredPurger)
	if !ok {
		return fmt.Errorf("cron: store.queue has unexpected type %T", svc)
	}

	if err := m.scheduler.RegisterJob(&PurgeJob{
		Queue:        queue,
		MaxAge:       m.config.PurgeMaxAge,
		Logger:       m.logger,
		ScheduleExpr: m.config.PurgeSchedule,
	}); err != nil {
		return err
	}

	if svc, ok := m.appCtx.Service("relay.engine"); ok {
		if engine, ok := svc.(*relay.Engine); ok {
			if err := m.scheduler.RegisterJob(&VersionRefreshJob{
				Versions:     engine.Versions(),
				Logger:       m.logger,
				ScheduleExpr: m.config.VersionSchedule,
			}); err != nil {
				return err
			}
		}
	}

	return m.scheduler.Start()
}

// Stop implements core.Stopper.
func (m *Module) Stop(ctx context.Context) error {
	if m.scheduler == nil {
		return nil
	}
	return m.scheduler.Stop(ctx)
}
