package processes

import (
	"context"

	"github.com/aretw0/flume/pkg/config"
	"github.com/aretw0/flume/pkg/edge"
	"github.com/aretw0/flume/pkg/process"
)

// Multiplication multiplies one value from each factor input.
type Multiplication struct {
	*process.Base
}

// NewMultiplication builds a multiplication process.
func NewMultiplication(name string, cfg *config.Config) (process.Process, error) {
	return &Multiplication{
		Base: process.New(name, TypeMultiplication, cfg).
			WithInput(process.PortInfo{Name: "factor1", Type: TypeInteger, Flags: process.Required, Description: "The first factor to multiply."}).
			WithInput(process.PortInfo{Name: "factor2", Type: TypeInteger, Flags: process.Required, Description: "The second factor to multiply."}).
			WithOutput(process.PortInfo{Name: "product", Type: TypeInteger, Description: "Where the product will be available."}),
	}, nil
}

func (m *Multiplication) Step(ctx context.Context, io process.PortIO) error {
	a, done, err := receiveInt(ctx, io, "factor1")
	if err != nil {
		return err
	}
	if done {
		return process.ErrComplete
	}
	b, done, err := receiveInt(ctx, io, "factor2")
	if err != nil {
		return err
	}
	if done {
		return process.ErrComplete
	}
	return io.Send(ctx, "product", edge.Data(a*b))
}
