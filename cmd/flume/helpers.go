package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/flume"
	"github.com/aretw0/flume/internal/settings"
	"github.com/aretw0/flume/pkg/adapters/file"
	"github.com/aretw0/flume/pkg/adapters/loam"
	"github.com/aretw0/flume/pkg/adapters/redis"
	"github.com/aretw0/flume/pkg/blueprint"
	"github.com/aretw0/flume/pkg/persistence/middleware"
	"github.com/aretw0/flume/pkg/pipeline"
	"github.com/aretw0/flume/pkg/ports"
	"github.com/aretw0/flume/pkg/session"
)

// env bundles what every pipeline command needs.
type env struct {
	settings *settings.Settings
	logger   *slog.Logger
	engine   *flume.Engine
}

func newEnv(cmd *cobra.Command, opts ...flume.Option) (*env, error) {
	s, err := commandSettings(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(s)
	if err != nil {
		return nil, err
	}
	eng, err := flume.New(append([]flume.Option{flume.WithLogger(logger)}, opts...)...)
	if err != nil {
		return nil, err
	}
	return &env{settings: s, logger: logger, engine: eng}, nil
}

// openSessions returns a session manager over the configured store: redis
// when an address is set, otherwise the directory in the chosen backend. The store is wrapped
// with validation plus the redaction and encryption the settings ask for.
// With redis, the manager also takes distributed locks on the same client.
// The returned close function is never nil.
func openSessions(s *settings.Settings, opts ...session.Option) (*session.Manager, func() error, error) {
	mws := []middleware.Middleware{middleware.NewValidateMiddleware()}
	if len(s.Store.Redact) > 0 {
		mw, err := middleware.NewRedactMiddleware(s.Store.Redact...)
		if err != nil {
			return nil, nil, err
		}
		mws = append(mws, mw)
	}
	if s.Store.Key != "" {
		key, err := base64.StdEncoding.DecodeString(s.Store.Key)
		if err != nil {
			return nil, nil, fmt.Errorf("FLUME_STORE_KEY: %w", err)
		}
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return nil, nil, fmt.Errorf("FLUME_STORE_KEY: %w", err)
		}
		mws = append(mws, mw)
	}

	if s.Redis.Addr != "" {
		st := redis.New(s.Redis.Addr, s.Redis.Password, s.Redis.DB)
		opts = append([]session.Option{session.WithLocker(st.Locker())}, opts...)
		return session.NewManager(middleware.Chain(st, mws...), opts...), st.Close, nil
	}
	base, err := dirStore(s.Store)
	if err != nil {
		return nil, nil, err
	}
	return session.NewManager(middleware.Chain(base, mws...), opts...), func() error { return nil }, nil
}

func dirStore(s settings.StoreSettings) (ports.BlueprintStore, error) {
	switch s.Backend {
	case "", "file":
		return file.New(s.Dir), nil
	case "loam":
		return loam.Open(s.Dir)
	default:
		return nil, fmt.Errorf("unknown store backend %q (want file or loam)", s.Backend)
	}
}

func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// addSourceFlags registers --from on commands taking a blueprint.
func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("from", "", "Load the blueprint from the store by name instead of a file")
}

// loadBlueprint reads the blueprint named by args[0] or by --from.
func (e *env) loadBlueprint(cmd *cobra.Command, args []string) (*blueprint.Blueprint, error) {
	name, _ := cmd.Flags().GetString("from")
	switch {
	case name != "":
		sessions, closeSessions, err := openSessions(e.settings)
		if err != nil {
			return nil, err
		}
		defer closeSessions()
		bp, err := sessions.Load(commandContext(cmd), name)
		if err != nil {
			return nil, fmt.Errorf("load %s from store: %w", name, err)
		}
		if bp.Name == "" {
			bp.Name = name
		}
		return bp, nil
	case len(args) > 0:
		bp, err := blueprint.Load(args[0])
		if err != nil {
			return nil, err
		}
		if bp.Name == "" {
			bp.Name = baseName(args[0])
		}
		return bp, nil
	default:
		return nil, fmt.Errorf("a blueprint file or --from is required")
	}
}

// buildPipeline loads and builds the blueprint without setting it up.
func (e *env) buildPipeline(cmd *cobra.Command, args []string, opts ...pipeline.Option) (*blueprint.Blueprint, *pipeline.Pipeline, error) {
	bp, err := e.loadBlueprint(cmd, args)
	if err != nil {
		return nil, nil, err
	}
	p, err := e.engine.Build(bp, opts...)
	if err != nil {
		return bp, nil, err
	}
	return bp, p, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
