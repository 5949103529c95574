package relay

import (
	"fmt"

	"github.com/hankhank10/loglink-server/internal/channel"
	"github.com/hankhank10/loglink-server/internal/core"
	"github.com/hankhank10/loglink-server/internal/store"
	"gopkg.in/yaml.v3"
)

func init() {
	core.RegisterModule(&Module{})
}

// Compile-time interface guards.
var (
	_ core.Configurable = (*Module)(nil)
	_ core.Provisioner  = (*Module)(nil)
	_ core.Validator    = (*Module)(nil)
	_ core.Starter      = (*Module)(nil)
)

// Module hosts the relay engine in the module system. It registers the
// inbox and the channel dispatcher during Provision so channel modules
// can wire themselves in, and binds the store services at Start.
type Module struct {
	config Config
	appCtx *core.AppContext
	engine *Engine
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "relay.engine",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("relay: decode config: %w", err)
	}
	m.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.appCtx = ctx
	m.config.defaults()

	dispatcher := channel.NewDispatcher()
	m.engine = NewEngine(ctx.Logger, m.config, dispatcher, nil, nil, nil)

	ctx.RegisterService("relay.engine", m.engine)
	ctx.RegisterService("relay.channels", dispatcher)
	ctx.RegisterService("relay.inbox", m.engine.HandleInbound)

	return nil
}

// Validate implements core.Validator.
func (m *Module) Validate() error {
	return m.config.validate()
}

// Start implements core.Starter. Store and uploader services are
// registered by their modules during Provision, so by the time Start
// runs they are all visible.
func (m *Module) Start() error {
	svc, ok := m.appCtx.Service("store.users")
	if !ok {
		return fmt.Errorf("relay: store.users service not available (is store.sqlite configured?)")
	}
	users, ok := svc.(store.IdentityStore)
	if !ok {
		return fmt.Errorf("relay: store.users service has unexpected type %T", svc)
	}

	svc, ok = m.appCtx.Service("store.queue")
	if !ok {
		return fmt.Errorf("relay: store.queue service not available (is store.sqlite configured?)")
	}
	queue, ok := svc.(store.MessageQueue)
	if !ok {
		return fmt.Errorf("relay: store.queue service has unexpected type %T", svc)
	}

	m.engine.users = users
	m.engine.queue = queue

	// Optional collaborators.
	if svc, ok := m.appCtx.Service("upload.images"); ok {
		if up, ok := svc.(Uploader); ok {
			m.engine.uploader = up
		}
	}
	if svc, ok := m.appCtx.Service("gateway.metrics"); ok {
		if metrics, ok := svc.(Metrics); ok {
			m.engine.SetMetrics(metrics)
		}
	}

	m.appCtx.Logger.Info("relay engine started",
		"channels", m.engine.dispatcher.Channels(),
		"purge_policy", m.config.PurgePolicy,
		"gated_providers", m.config.GatedProviders,
	)
	return nil
}
