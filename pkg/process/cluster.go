package process

import (
	"fmt"

	"github.com/aretw0/flume/pkg/config"
	"github.com/aretw0/flume/pkg/domain"
)

// Mapping binds a cluster-level port to a member's port.
type Mapping struct {
	Port   string         // Cluster-level port name
	Target domain.Address // Member process (or nested cluster) and port
}

// Cluster groups member processes and exposes some of their ports under its
// own name. It satisfies Process so it can be named and listed like one, but
// edges are never attached to it: the pipeline resolves cluster ports to the
// mapped member before connecting.
type Cluster struct {
	name        string
	typ         string
	cfg         *config.Config
	members     []Process
	inputs      []Mapping
	outputs     []Mapping
	connections []domain.Connection
}

// NewCluster returns an empty cluster. A nil cfg is treated as empty.
func NewCluster(name, typ string, cfg *config.Config) *Cluster {
	if cfg == nil {
		cfg = config.Empty()
	}
	return &Cluster{name: name, typ: typ, cfg: cfg}
}

// AddMember adds a process (or nested cluster) owned by c.
func (c *Cluster) AddMember(p Process) error {
	if p.Name() == c.name {
		return domain.NewError(domain.ErrDuplicateName, p.Name(), "", "member shares the cluster name")
	}
	for _, m := range c.members {
		if m.Name() == p.Name() {
			return domain.NewError(domain.ErrDuplicateName, p.Name(), "", "duplicate cluster member")
		}
	}
	c.members = append(c.members, p)
	return nil
}

// MapInput exposes member input target as cluster input port.
func (c *Cluster) MapInput(port string, target domain.Address) error {
	return c.addMapping(&c.inputs, port, target)
}

// MapOutput exposes member output target as cluster output port.
func (c *Cluster) MapOutput(port string, target domain.Address) error {
	return c.addMapping(&c.outputs, port, target)
}

// Cluster port names are unique across both directions.
func (c *Cluster) addMapping(dst *[]Mapping, port string, target domain.Address) error {
	for _, m := range c.inputs {
		if m.Port == port {
			return fmt.Errorf("cluster %s: port %q already mapped", c.name, port)
		}
	}
	for _, m := range c.outputs {
		if m.Port == port {
			return fmt.Errorf("cluster %s: port %q already mapped", c.name, port)
		}
	}
	*dst = append(*dst, Mapping{Port: port, Target: target})
	return nil
}

// Connect records an internal connection between two members. It is
// validated and applied when the cluster is added to a pipeline.
func (c *Cluster) Connect(from, to domain.Address) {
	c.connections = append(c.connections, domain.Connection{From: from, To: to})
}

func (c *Cluster) Name() string { return c.name }

func (c *Cluster) Type() string { return c.typ }

func (c *Cluster) Config() *config.Config { return c.cfg }

// Members returns the direct members in insertion order.
func (c *Cluster) Members() []Process { return append([]Process(nil), c.members...) }

// Member returns the direct member with the given name.
func (c *Cluster) Member(name string) (Process, bool) {
	for _, m := range c.members {
		if m.Name() == name {
			return m, true
		}
	}
	return nil, false
}

// Owns reports whether name is a member of c or of any nested cluster.
func (c *Cluster) Owns(name string) bool {
	for _, m := range c.members {
		if m.Name() == name {
			return true
		}
		if sub, ok := m.(*Cluster); ok && sub.Owns(name) {
			return true
		}
	}
	return false
}

// Leaves returns every non-cluster process under c, depth first.
func (c *Cluster) Leaves() []Process {
	var out []Process
	for _, m := range c.members {
		if sub, ok := m.(*Cluster); ok {
			out = append(out, sub.Leaves()...)
			continue
		}
		out = append(out, m)
	}
	return out
}

// Nested returns every cluster under c (not c itself), depth first.
func (c *Cluster) Nested() []*Cluster {
	var out []*Cluster
	for _, m := range c.members {
		if sub, ok := m.(*Cluster); ok {
			out = append(out, sub)
			out = append(out, sub.Nested()...)
		}
	}
	return out
}

// InputMappings returns the input port mappings in declaration order.
func (c *Cluster) InputMappings() []Mapping { return append([]Mapping(nil), c.inputs...) }

// OutputMappings returns the output port mappings in declaration order.
func (c *Cluster) OutputMappings() []Mapping { return append([]Mapping(nil), c.outputs...) }

// Connections returns the internal connections in declaration order.
func (c *Cluster) Connections() []domain.Connection {
	return append([]domain.Connection(nil), c.connections...)
}

// Mapping returns the target of a cluster port in the given direction.
func (c *Cluster) Mapping(dir Direction, port string) (domain.Address, bool) {
	list := c.inputs
	if dir == Output {
		list = c.outputs
	}
	for _, m := range list {
		if m.Port == port {
			return m.Target, true
		}
	}
	return domain.Address{}, false
}

// InputPorts describes the cluster inputs using the mapped member descriptors.
func (c *Cluster) InputPorts() []PortInfo { return c.describe(Input, c.inputs) }

// OutputPorts describes the cluster outputs using the mapped member descriptors.
func (c *Cluster) OutputPorts() []PortInfo { return c.describe(Output, c.outputs) }

// Unresolvable mappings are reported as untyped ports; the pipeline rejects
// them when the cluster is added.
func (c *Cluster) describe(dir Direction, mappings []Mapping) []PortInfo {
	out := make([]PortInfo, 0, len(mappings))
	for _, m := range mappings {
		info := PortInfo{Name: m.Port, Type: TypeAny}
		if member, ok := c.Member(m.Target.Process); ok {
			if target, ok := Port(member, dir, m.Target.Port); ok {
				info = target
				info.Name = m.Port
			}
		}
		out = append(out, info)
	}
	return out
}
