package registry

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/aretw0/flume/pkg/config"
	"github.com/aretw0/flume/pkg/domain"
	"github.com/aretw0/flume/pkg/process"
	"github.com/aretw0/flume/pkg/schema"
)

// Constructor builds a process instance. cfg already carries the _type and
// _name keys and every schema default.
type Constructor func(name string, cfg *config.Config) (process.Process, error)

// Entry is what the registry knows about one process type.
type Entry struct {
	Type        string
	Description string
	Keys        schema.Schema
	ctor        Constructor
}

// Module groups the registrations of a set of process types so they can be
// loaded once per registry.
type Module struct {
	Name     string
	Register func(r *Registry) error
}

// Registry maps process type names to constructors.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	modules map[string]struct{}
	logger  *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used to report registrations.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates a new empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]Entry),
		modules: make(map[string]struct{}),
		logger:  slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a process type. Registering a type twice is an error.
func (r *Registry) Register(typ, description string, ctor Constructor, keys ...schema.Key) error {
	if typ == "" {
		return fmt.Errorf("process type must not be empty")
	}
	if ctor == nil {
		return fmt.Errorf("process type %q: nil constructor", typ)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[typ]; exists {
		return fmt.Errorf("process type %q already registered", typ)
	}
	r.entries[typ] = Entry{Type: typ, Description: description, Keys: keys, ctor: ctor}
	r.logger.Debug("process type registered", "type", typ)
	return nil
}

// Create builds a process of the given type. The caller's cfg is never
// modified: the process gets a clone with schema defaults applied and the
// read-only _type and _name keys set.
func (r *Registry) Create(typ, name string, cfg *config.Config) (process.Process, error) {
	r.mu.RLock()
	entry, ok := r.entries[typ]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.NewError(domain.ErrUnknownProcessType, name, "", typ)
	}

	own := cfg.Clone()
	if err := stamp(own, process.KeyType, typ); err != nil {
		return nil, invalid(name, err)
	}
	if err := stamp(own, process.KeyName, name); err != nil {
		return nil, invalid(name, err)
	}
	if err := entry.Keys.ApplyDefaults(own); err != nil {
		return nil, invalid(name, err)
	}
	if err := schema.Validate(entry.Keys, own); err != nil {
		return nil, invalid(name, err)
	}

	p, err := entry.ctor(name, own)
	if err != nil {
		return nil, invalid(name, err)
	}
	return p, nil
}

func stamp(cfg *config.Config, key, value string) error {
	if cfg.IsReadOnly(key) {
		if v, _ := cfg.Value(key); v != value {
			return fmt.Errorf("%w: %s", config.ErrReadOnly, key)
		}
		return nil
	}
	if err := cfg.SetValue(key, value); err != nil {
		return err
	}
	cfg.MarkReadOnly(key)
	return nil
}

func invalid(name string, err error) error {
	e := domain.NewError(domain.ErrInvalidConfiguration, name, "", "")
	e.Err = err
	return e
}

// Types returns every registered type name, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.entries))
	for t := range r.entries {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// Lookup returns the entry for a type.
func (r *Registry) Lookup(typ string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[typ]
	return e, ok
}

// Description returns the human description of a type.
func (r *Registry) Description(typ string) (string, error) {
	e, ok := r.Lookup(typ)
	if !ok {
		return "", domain.NewError(domain.ErrUnknownProcessType, "", "", typ)
	}
	return e.Description, nil
}

// Keys returns the config keys a type declares.
func (r *Registry) Keys(typ string) (schema.Schema, error) {
	e, ok := r.Lookup(typ)
	if !ok {
		return nil, domain.NewError(domain.ErrUnknownProcessType, "", "", typ)
	}
	return slices.Clone(e.Keys), nil
}

// IsModuleLoaded reports whether a module has already been marked as loaded.
func (r *Registry) IsModuleLoaded(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.modules[name]
	return ok
}

// MarkModuleLoaded records a module as loaded.
func (r *Registry) MarkModuleLoaded(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[name] = struct{}{}
}

// Load runs the registration of every module not loaded yet.
// A module whose registration fails is not marked as loaded.
func (r *Registry) Load(modules ...Module) error {
	for _, m := range modules {
		if r.IsModuleLoaded(m.Name) {
			continue
		}
		if err := m.Register(r); err != nil {
			return fmt.Errorf("load module %s: %w", m.Name, err)
		}
		r.MarkModuleLoaded(m.Name)
		r.logger.Info("process module loaded", "module", m.Name)
	}
	return nil
}
