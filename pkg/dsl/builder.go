package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/flume/pkg/blueprint"
)

// Builder accumulates a blueprint. Mistakes are collected and reported by
// Build so calls can be chained without error checks.
type Builder struct {
	bp   blueprint.Blueprint
	seen map[string]struct{}
	errs []error
}

// New starts a blueprint with the given name.
func New(name string) *Builder {
	return &Builder{
		bp:   blueprint.Blueprint{Name: name},
		seen: make(map[string]struct{}),
	}
}

// Describe sets the blueprint description.
func (b *Builder) Describe(text string) *Builder {
	b.bp.Description = text
	return b
}

// Config sets a pipeline-level config value.
func (b *Builder) Config(key, value string) *Builder {
	if b.bp.Config == nil {
		b.bp.Config = make(map[string]string)
	}
	b.bp.Config[key] = value
	return b
}

// Process adds a top-level process and returns a builder for its config.
func (b *Builder) Process(name, typ string) *ProcessBuilder {
	b.claim(name)
	b.bp.Processes = append(b.bp.Processes, blueprint.ProcessDef{Name: name, Type: typ})
	return &ProcessBuilder{owner: b, idx: len(b.bp.Processes) - 1}
}

// Cluster adds a top-level cluster. An empty typ selects the default
// cluster type.
func (b *Builder) Cluster(name, typ string) *ClusterBuilder {
	b.claim(name)
	b.bp.Clusters = append(b.bp.Clusters, blueprint.ClusterDef{Name: name, Type: typ})
	return &ClusterBuilder{root: b, idx: len(b.bp.Clusters) - 1}
}

// Connect links an output address to an input address, both "proc.port".
func (b *Builder) Connect(from, to string) *Builder {
	b.bp.Connections = append(b.bp.Connections, blueprint.ConnectionDef{From: from, To: to})
	return b
}

// Build returns the blueprint, or every problem recorded while building
// followed by the structural checks of blueprint.Validate.
func (b *Builder) Build() (*blueprint.Blueprint, error) {
	errs := append([]error(nil), b.errs...)
	if err := b.bp.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return b.bp.Clone(), nil
}

func (b *Builder) claim(name string) {
	if _, dup := b.seen[name]; dup {
		b.errs = append(b.errs, fmt.Errorf("%w: duplicate name %q", blueprint.ErrInvalid, name))
		return
	}
	b.seen[name] = struct{}{}
}

// ProcessBuilder configures one process.
type ProcessBuilder struct {
	owner   *Builder
	cluster *ClusterBuilder
	idx     int
}

func (p *ProcessBuilder) def() *blueprint.ProcessDef {
	if p.cluster == nil {
		return &p.owner.bp.Processes[p.idx]
	}
	return &p.cluster.def().Processes[p.idx]
}

// Set assigns a config value on the process.
func (p *ProcessBuilder) Set(key, value string) *ProcessBuilder {
	d := p.def()
	if d.Config == nil {
		d.Config = make(map[string]string)
	}
	d.Config[key] = value
	return p
}

// Pipeline returns to the blueprint builder.
func (p *ProcessBuilder) Pipeline() *Builder {
	return p.owner
}

// Cluster returns to the enclosing cluster builder. It is nil for
// top-level processes.
func (p *ProcessBuilder) Cluster() *ClusterBuilder {
	return p.cluster
}
