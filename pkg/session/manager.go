// Package session serialises work on named blueprints. Operations on the same
// name never overlap within a process, and when a distributed locker is
// configured they never overlap across processes either.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/flume/internal/logging"
	"github.com/aretw0/flume/pkg/blueprint"
	"github.com/aretw0/flume/pkg/ports"
)

// DefaultTTL is the expiry of distributed locks when none is configured.
const DefaultTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager guards store access and pipeline runs per blueprint name.
// Unused lock entries are dropped by reference counting.
type Manager struct {
	store ports.BlueprintStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker ports.DistributedLocker
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithTTL sets the expiry of distributed locks.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithKeyPrefix namespaces the distributed lock keys, e.g. "run:".
func WithKeyPrefix(prefix string) Option {
	return func(m *Manager) {
		m.prefix = prefix
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager over store. store may be nil for a manager
// that is only used through WithLock.
func NewManager(store ports.BlueprintStore, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		locks:  make(map[string]*lockEntry),
		ttl:    DefaultTTL,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller locks entry.mu and calls release(name) after unlocking.
func (m *Manager) acquire(name string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[name]
	if !exists {
		entry = &lockEntry{}
		m.locks[name] = entry
	}
	entry.refs++
	return entry
}

func (m *Manager) release(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[name]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, name)
	}
}

// active reports how many callers hold or wait for name.
func (m *Manager) active(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.locks[name]; ok {
		return e.refs
	}
	return 0
}

// Load retrieves a blueprint under the lock for name.
func (m *Manager) Load(ctx context.Context, name string) (*blueprint.Blueprint, error) {
	var bp *blueprint.Blueprint
	err := m.WithLock(ctx, name, func(ctx context.Context) error {
		var err error
		bp, err = m.store.Load(ctx, name)
		return err
	})
	return bp, err
}

// Save stores a blueprint under the lock for name.
func (m *Manager) Save(ctx context.Context, name string, bp *blueprint.Blueprint) error {
	return m.WithLock(ctx, name, func(ctx context.Context) error {
		return m.store.Save(ctx, name, bp)
	})
}

// Delete removes a blueprint under the lock for name.
func (m *Manager) Delete(ctx context.Context, name string) error {
	return m.WithLock(ctx, name, func(ctx context.Context) error {
		return m.store.Delete(ctx, name)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying blueprint store.
func (m *Manager) Store() ports.BlueprintStore {
	return m.store
}

// WithLock runs fn while holding the lock for name.
func (m *Manager) WithLock(ctx context.Context, name string, fn func(context.Context) error) error {
	entry := m.acquire(name)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(name)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, m.prefix+name, m.ttl)
		if err != nil {
			return fmt.Errorf("acquire lock %s: %w", name, err)
		}
		defer func() {
			// The caller's context may already be cancelled.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("failed to release distributed lock, it will expire via TTL",
					"blueprint", name,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
