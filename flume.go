package flume

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/aretw0/flume/pkg/blueprint"
	"github.com/aretw0/flume/pkg/domain"
	"github.com/aretw0/flume/pkg/pipeline"
	"github.com/aretw0/flume/pkg/processes"
	"github.com/aretw0/flume/pkg/registry"
	"github.com/aretw0/flume/pkg/scheduler"
)

// Version is the release of this module.
//
//go:embed VERSION
var Version string

// Engine is the high-level entry point for the Flume library.
// It turns blueprints into pipelines using a process registry.
type Engine struct {
	registry *registry.Registry
	modules  []registry.Module
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	schedOps []scheduler.Option
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks on every pipeline built.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithRegistry injects a registry instead of creating one.
func WithRegistry(r *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithModules loads extra process modules on top of the built-in examples.
func WithModules(mods ...registry.Module) Option {
	return func(e *Engine) {
		e.modules = append(e.modules, mods...)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithSchedulerOptions passes options to every scheduler the engine starts.
func WithSchedulerOptions(opts ...scheduler.Option) Option {
	return func(e *Engine) {
		e.schedOps = append(e.schedOps, opts...)
	}
}

// New initializes an Engine with the built-in process types registered.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if eng.registry == nil {
		eng.registry = registry.NewRegistry(registry.WithLogger(eng.logger))
	}

	mods := append([]registry.Module{processes.Module}, eng.modules...)
	if err := eng.registry.Load(mods...); err != nil {
		return nil, err
	}
	return eng, nil
}

// Registry returns the process registry used by the engine.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Build creates a pipeline from bp without setting it up.
func (e *Engine) Build(bp *blueprint.Blueprint, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	logger := e.logger
	if bp.Name != "" {
		logger = logger.With("blueprint", bp.Name)
	}
	base := []pipeline.Option{pipeline.WithLogger(logger), pipeline.WithHooks(e.hooks)}
	return blueprint.Build(bp, e.registry, append(base, opts...)...)
}

// Load reads a blueprint file and builds it. A blueprint without a name is
// named after the file.
func (e *Engine) Load(path string, opts ...pipeline.Option) (*blueprint.Blueprint, *pipeline.Pipeline, error) {
	bp, err := blueprint.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if bp.Name == "" {
		bp.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	p, err := e.Build(bp, opts...)
	if err != nil {
		return bp, nil, err
	}
	return bp, p, nil
}

// Setup builds bp and sets the pipeline up.
func (e *Engine) Setup(bp *blueprint.Blueprint, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	p, err := e.Build(bp, opts...)
	if err != nil {
		return nil, err
	}
	if err := p.SetupPipeline(); err != nil {
		return p, err
	}
	return p, nil
}

// Run sets p up if needed and drives it until its sinks complete.
func (e *Engine) Run(ctx context.Context, p *pipeline.Pipeline, opts ...scheduler.Option) (map[string]int64, error) {
	if !p.IsSetup() {
		if err := p.SetupPipeline(); err != nil {
			return nil, fmt.Errorf("setup: %w", err)
		}
	}
	base := []scheduler.Option{scheduler.WithLogger(e.logger)}
	s := scheduler.New(p, append(append(base, e.schedOps...), opts...)...)
	if err := s.Run(ctx); err != nil {
		return s.Steps(), err
	}
	return s.Steps(), nil
}
