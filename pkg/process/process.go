package process

import (
	"context"
	"errors"

	"github.com/aretw0/flume/pkg/config"
	"github.com/aretw0/flume/pkg/edge"
)

// Well-known config keys written by the registry on every created process.
const (
	KeyType = "_type"
	KeyName = "_name"
)

// ErrComplete is returned by Step when a process has no more data to produce.
var ErrComplete = errors.New("process complete")

// Process is a named graph node with declared ports.
type Process interface {
	Name() string
	Type() string
	InputPorts() []PortInfo
	OutputPorts() []PortInfo
	Config() *config.Config
}

// Configurable processes validate and apply their config when the pipeline is set up.
type Configurable interface {
	Configure() error
}

// Reconfigurable processes accept a new config block after setup.
type Reconfigurable interface {
	Reconfigure(cfg *config.Config) error
}

// PortIO is the view of the graph a running process gets: one call per port.
type PortIO interface {
	// Receive blocks until a datum arrives on the named input.
	Receive(ctx context.Context, port string) (edge.Datum, error)
	// Send blocks until every receiver of the named output has room.
	Send(ctx context.Context, port string, d edge.Datum) error
}

// Steppable processes are driven by a scheduler. Returning ErrComplete ends
// the process and marks its outputs complete.
type Steppable interface {
	Step(ctx context.Context, io PortIO) error
}

// Base is a plain Process with fixed ports. Built-in processes embed it.
type Base struct {
	name    string
	typ     string
	inputs  []PortInfo
	outputs []PortInfo
	cfg     *config.Config
}

// New returns a Base with no ports. A nil cfg is treated as empty.
func New(name, typ string, cfg *config.Config) *Base {
	if cfg == nil {
		cfg = config.Empty()
	}
	return &Base{name: name, typ: typ, cfg: cfg}
}

// WithInput declares an input port, replacing any previous one with the same name.
func (b *Base) WithInput(info PortInfo) *Base {
	b.inputs = upsert(b.inputs, info)
	return b
}

// WithOutput declares an output port, replacing any previous one with the same name.
func (b *Base) WithOutput(info PortInfo) *Base {
	b.outputs = upsert(b.outputs, info)
	return b
}

func upsert(ports []PortInfo, info PortInfo) []PortInfo {
	for i := range ports {
		if ports[i].Name == info.Name {
			ports[i] = info
			return ports
		}
	}
	return append(ports, info)
}

func (b *Base) Name() string { return b.name }

func (b *Base) Type() string { return b.typ }

func (b *Base) InputPorts() []PortInfo { return append([]PortInfo(nil), b.inputs...) }

func (b *Base) OutputPorts() []PortInfo { return append([]PortInfo(nil), b.outputs...) }

func (b *Base) Config() *config.Config { return b.cfg }

// SetConfig replaces the config snapshot.
func (b *Base) SetConfig(cfg *config.Config) { b.cfg = cfg }
