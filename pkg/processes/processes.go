// Package processes provides the built-in process types: number sources, a
// multiplier, a printer, a sink and a multiplier cluster.
package processes

import (
	"context"
	"fmt"

	"github.com/aretw0/flume/pkg/edge"
	"github.com/aretw0/flume/pkg/process"
	"github.com/aretw0/flume/pkg/registry"
	"github.com/aretw0/flume/pkg/schema"
)

// Type names registered by Register.
const (
	TypeNumbers           = "numbers"
	TypeConstNumber       = "const_number"
	TypeMultiplication    = "multiplication"
	TypePrintNumber       = "print_number"
	TypeSink              = "sink"
	TypeMultiplierCluster = "multiplier_cluster"
)

// TypeInteger is the data type tag carried by every numeric port.
const TypeInteger = "integer"

// Module loads every built-in type into a registry.
var Module = registry.Module{Name: "examples", Register: Register}

// Register adds the built-in types to r.
func Register(r *registry.Registry) error {
	regs := []struct {
		typ  string
		desc string
		ctor registry.Constructor
		keys []schema.Key
	}{
		{TypeNumbers, "Outputs numbers within a range", NewNumbers, []schema.Key{
			{Name: "start", Type: schema.Int(), Default: "0", Description: "The value to start counting at."},
			{Name: "end", Type: schema.Int(), Default: "100", Description: "The value to stop counting at (exclusive)."},
		}},
		{TypeConstNumber, "Outputs the same number forever", NewConstNumber, []schema.Key{
			{Name: "value", Type: schema.Int(), Default: "0", Description: "The number to output."},
		}},
		{TypeMultiplication, "Multiplies numbers", NewMultiplication, nil},
		{TypePrintNumber, "Print numbers to a file", NewPrintNumber, []schema.Key{
			{Name: "output", Type: schema.String(), Description: "The path of the file to output to. Empty discards."},
		}},
		{TypeSink, "Ignores all incoming data", NewSink, nil},
		{TypeMultiplierCluster, "Multiplies numbers by a constant factor", multiplierCluster(r), []schema.Key{
			{Name: "factor", Type: schema.Int(), Required: true, Description: "The factor to multiply by."},
		}},
	}
	for _, reg := range regs {
		if err := r.Register(reg.typ, reg.desc, reg.ctor, reg.keys...); err != nil {
			return err
		}
	}
	return nil
}

// receiveInt reads the next integer from an input. done is true once the
// upstream edge is complete.
func receiveInt(ctx context.Context, io process.PortIO, port string) (n int64, done bool, err error) {
	for {
		d, err := io.Receive(ctx, port)
		if err != nil {
			return 0, false, err
		}
		switch d.Kind {
		case edge.KindComplete:
			return 0, true, nil
		case edge.KindError:
			return 0, false, fmt.Errorf("port %s: %w", port, d.Err)
		case edge.KindEmpty:
			continue
		}
		v, ok := d.Value.(int64)
		if !ok {
			return 0, false, fmt.Errorf("port %s: expected int64, got %T", port, d.Value)
		}
		return v, false, nil
	}
}
