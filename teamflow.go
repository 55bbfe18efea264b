// Package teamflow provides a top-level convenience entry point that wires
// the registries, managers and facade services into one engine.
//
// Usage:
//
//	import "github.com/BaSui01/teamflow"
//
//	engine, err := teamflow.New()
//	engine, err := teamflow.New(teamflow.WithConfig(cfg), teamflow.WithLogger(logger))
//
// Callers register agents and roles on the engine's registries, then form
// teams and run negotiations through the two services. Components can also
// be constructed individually from the formation, negotiation and service
// packages when finer control is needed.
package teamflow

import (
	"go.uber.org/zap"

	"github.com/BaSui01/teamflow/allocation"
	"github.com/BaSui01/teamflow/config"
	"github.com/BaSui01/teamflow/formation"
	"github.com/BaSui01/teamflow/internal/metrics"
	"github.com/BaSui01/teamflow/negotiation"
	"github.com/BaSui01/teamflow/registry"
	"github.com/BaSui01/teamflow/service"
)

// Engine bundles the fully wired team formation and negotiation stack.
type Engine struct {
	// Capabilities is the agent profile registry.
	Capabilities *registry.CapabilityRegistry

	// Roles is the role definition registry.
	Roles *registry.RoleRegistry

	// Formation is the team formation facade.
	Formation *service.TeamFormationService

	// Negotiation is the negotiation facade.
	Negotiation *service.NegotiationService

	cfg    *config.Config
	logger *zap.Logger
}

type engineOptions struct {
	cfg             *config.Config
	logger          *zap.Logger
	metricsDisabled bool
}

// Option configures the engine created by [New].
type Option func(*engineOptions)

// WithConfig replaces the default configuration.
func WithConfig(cfg *config.Config) Option {
	return func(o *engineOptions) { o.cfg = cfg }
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *engineOptions) { o.logger = logger }
}

// WithoutMetrics disables Prometheus metric registration regardless of the
// configuration. Useful when several engines share one process.
func WithoutMetrics() Option {
	return func(o *engineOptions) { o.metricsDisabled = true }
}

// New creates a fully wired engine.
func New(opts ...Option) (*Engine, error) {
	o := &engineOptions{}
	for _, opt := range opts {
		opt(o)
	}

	cfg := o.cfg
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := o.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled && !o.metricsDisabled {
		collector = metrics.NewCollector(cfg.Metrics.Namespace, logger)
	}

	capabilities := registry.NewCapabilityRegistry(logger)
	roles := registry.NewRoleRegistry(logger)

	formationManager := formation.NewManager(capabilities, roles, cfg.Formation, logger)
	negotiationManager := negotiation.NewManager(cfg.Negotiation, logger)
	resolver := negotiation.NewConflictResolver(logger)
	allocations := allocation.NewRegistry(cfg.Allocation.DefaultStrategy, logger)

	return &Engine{
		Capabilities: capabilities,
		Roles:        roles,
		Formation:    service.NewTeamFormationService(formationManager, collector, logger),
		Negotiation:  service.NewNegotiationService(negotiationManager, resolver, allocations, capabilities, collector, logger),
		cfg:          cfg,
		logger:       logger,
	}, nil
}

// Config returns the engine's effective configuration.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Close flushes the engine's logger. The engine holds no other resources.
func (e *Engine) Close() error {
	// Sync on stderr-backed loggers fails on some platforms; nothing
	// actionable for the caller.
	_ = e.logger.Sync()
	return nil
}
