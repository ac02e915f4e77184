package pipeline_test

import (
	"errors"
	"testing"

	"github.com/aretw0/flume/pkg/config"
	"github.com/aretw0/flume/pkg/domain"
	"github.com/aretw0/flume/pkg/pipeline"
	"github.com/aretw0/flume/pkg/process"
	"github.com/stretchr/testify/require"
)

func numbers(name string) *process.Base {
	return process.New(name, "numbers", nil).
		WithOutput(process.PortInfo{Name: "number", Type: "int"})
}

func printer(name string) *process.Base {
	return process.New(name, "print_number", nil).
		WithInput(process.PortInfo{Name: "number", Type: "int", Flags: process.Required})
}

func multiplier(name string) *process.Base {
	return process.New(name, "multiplication", nil).
		WithInput(process.PortInfo{Name: "factor1", Type: "int", Flags: process.Required}).
		WithInput(process.PortInfo{Name: "factor2", Type: "int", Flags: process.Required}).
		WithOutput(process.PortInfo{Name: "product", Type: "int"})
}

func anySink(name string) *process.Base {
	return process.New(name, "sink", nil).
		WithInput(process.PortInfo{Name: "sink", Type: process.TypeAny, Flags: process.Required})
}

func anySource(name string) *process.Base {
	return process.New(name, "any_source", nil).
		WithOutput(process.PortInfo{Name: "out", Type: process.TypeAny})
}

func texts(name string) *process.Base {
	return process.New(name, "texts", nil).
		WithOutput(process.PortInfo{Name: "text", Type: "string"})
}

// multiplierCluster wires const -> mult.factor1 and exposes factor/product.
func multiplierCluster(t *testing.T, name string) *process.Cluster {
	t.Helper()
	c := process.NewCluster(name, "multiplier_cluster", nil)
	require.NoError(t, c.AddMember(numbers(name+"_const")))
	require.NoError(t, c.AddMember(multiplier(name+"_mult")))
	require.NoError(t, c.MapInput("factor", domain.Address{Process: name + "_mult", Port: "factor2"}))
	require.NoError(t, c.MapOutput("product", domain.Address{Process: name + "_mult", Port: "product"}))
	c.Connect(domain.Address{Process: name + "_const", Port: "number"}, domain.Address{Process: name + "_mult", Port: "factor1"})
	return c
}

func addAll(t *testing.T, p *pipeline.Pipeline, procs ...process.Process) {
	t.Helper()
	for _, proc := range procs {
		require.NoError(t, p.AddProcess(proc))
	}
}

// configurable fails Configure when its config holds "fail".
type configurable struct {
	*process.Base
	configured   int
	reconfigured []*config.Config
}

func newConfigurable(name string) *configurable {
	return &configurable{Base: process.New(name, "configurable", nil)}
}

func (c *configurable) Configure() error {
	c.configured++
	if c.Config().Has("fail") {
		return errors.New("refusing to configure")
	}
	return nil
}

func (c *configurable) Reconfigure(cfg *config.Config) error {
	c.reconfigured = append(c.reconfigured, cfg)
	if cfg.Has("fail") {
		return errors.New("refusing to reconfigure")
	}
	return nil
}
