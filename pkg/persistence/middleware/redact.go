package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/flume/pkg/blueprint"
	"github.com/aretw0/flume/pkg/ports"
)

// Masked replaces redacted config values.
const Masked = "***"

type redactMiddleware struct {
	next     ports.BlueprintStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware creates a middleware that masks, on save, every config
// value whose key matches one of the patterns. It covers the pipeline config
// and the config of every process and cluster.
func NewRedactMiddleware(patterns ...string) (Middleware, error) {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("redact pattern %q: %w", p, err)
		}
		compiled[i] = re
	}
	return func(next ports.BlueprintStore) ports.BlueprintStore {
		return &redactMiddleware{next: next, patterns: compiled}
	}, nil
}

func (m *redactMiddleware) Save(ctx context.Context, name string, bp *blueprint.Blueprint) error {
	// Clone so the caller's blueprint keeps its real values.
	cloned := bp.Clone()
	m.mask(cloned.Config)
	m.maskProcesses(cloned.Processes)
	m.maskClusters(cloned.Clusters)
	return m.next.Save(ctx, name, cloned)
}

func (m *redactMiddleware) Load(ctx context.Context, name string) (*blueprint.Blueprint, error) {
	return m.next.Load(ctx, name)
}

func (m *redactMiddleware) Delete(ctx context.Context, name string) error {
	return m.next.Delete(ctx, name)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *redactMiddleware) maskProcesses(defs []blueprint.ProcessDef) {
	for _, def := range defs {
		m.mask(def.Config)
	}
}

func (m *redactMiddleware) maskClusters(defs []blueprint.ClusterDef) {
	for _, def := range defs {
		m.mask(def.Config)
		m.maskProcesses(def.Processes)
		m.maskClusters(def.Clusters)
	}
}

func (m *redactMiddleware) mask(cfg map[string]string) {
	for k := range cfg {
		for _, p := range m.patterns {
			if p.MatchString(k) {
				cfg[k] = Masked
				break
			}
		}
	}
}
