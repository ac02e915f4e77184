package processes

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/aretw0/flume/pkg/config"
	"github.com/aretw0/flume/pkg/edge"
	"github.com/aretw0/flume/pkg/process"
)

// Numbers emits start, start+1, ... end-1 on its "number" output.
type Numbers struct {
	*process.Base
	settings struct {
		Start int64 `config:"start"`
		End   int64 `config:"end"`
	}
	next int64
}

// NewNumbers builds a numbers process.
func NewNumbers(name string, cfg *config.Config) (process.Process, error) {
	return &Numbers{
		Base: process.New(name, TypeNumbers, cfg).
			WithOutput(process.PortInfo{Name: "number", Type: TypeInteger, Description: "Where the numbers will be available."}),
	}, nil
}

func (n *Numbers) Configure() error {
	if err := n.Config().Decode(&n.settings); err != nil {
		return err
	}
	if n.settings.End < n.settings.Start {
		return fmt.Errorf("end (%d) is before start (%d)", n.settings.End, n.settings.Start)
	}
	n.next = n.settings.Start
	return nil
}

func (n *Numbers) Step(ctx context.Context, io process.PortIO) error {
	if n.next >= n.settings.End {
		return process.ErrComplete
	}
	if err := io.Send(ctx, "number", edge.Data(n.next)); err != nil {
		return err
	}
	n.next++
	return nil
}

// ConstNumber emits the same value on every step. It never completes on its
// own; a run ends once its consumers are done.
type ConstNumber struct {
	*process.Base
	value atomic.Int64
}

// NewConstNumber builds a const_number process.
func NewConstNumber(name string, cfg *config.Config) (process.Process, error) {
	return &ConstNumber{
		Base: process.New(name, TypeConstNumber, cfg).
			WithOutput(process.PortInfo{Name: "number", Type: TypeInteger, Flags: process.Const, Description: "Where the number will be available."}),
	}, nil
}

func (c *ConstNumber) Configure() error {
	var s struct {
		Value int64 `config:"value"`
	}
	if err := c.Config().Decode(&s); err != nil {
		return err
	}
	c.value.Store(s.Value)
	return nil
}

// Reconfigure picks up a new "value" while running.
func (c *ConstNumber) Reconfigure(cfg *config.Config) error {
	if !cfg.Has("value") {
		return nil
	}
	var s struct {
		Value int64 `config:"value"`
	}
	if err := cfg.Decode(&s); err != nil {
		return err
	}
	c.value.Store(s.Value)
	return nil
}

// Value returns the number currently emitted.
func (c *ConstNumber) Value() int64 { return c.value.Load() }

func (c *ConstNumber) Step(ctx context.Context, io process.PortIO) error {
	return io.Send(ctx, "number", edge.Data(c.value.Load()))
}
