package blueprint

import (
	"fmt"

	"github.com/aretw0/flume/pkg/config"
	"github.com/aretw0/flume/pkg/domain"
	"github.com/aretw0/flume/pkg/pipeline"
	"github.com/aretw0/flume/pkg/process"
)

// Factory creates process instances by type. *registry.Registry satisfies it.
type Factory interface {
	Create(typ, name string, cfg *config.Config) (process.Process, error)
}

// Build creates a pipeline holding every process, cluster and connection of
// bp. The blueprint config becomes the pipeline config; opts are applied
// after it.
func Build(bp *Blueprint, f Factory, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	if err := bp.Validate(); err != nil {
		return nil, err
	}

	opts = append([]pipeline.Option{pipeline.WithConfig(config.FromMap(bp.Config))}, opts...)
	p := pipeline.New(opts...)

	for _, def := range bp.Processes {
		proc, err := f.Create(def.Type, def.Name, config.FromMap(def.Config))
		if err != nil {
			return nil, fmt.Errorf("process %s: %w", def.Name, err)
		}
		if err := p.AddProcess(proc); err != nil {
			return nil, err
		}
	}

	for _, def := range bp.Clusters {
		c, err := buildCluster(def, f)
		if err != nil {
			return nil, err
		}
		if err := p.AddCluster(c); err != nil {
			return nil, err
		}
	}

	for _, def := range bp.Connections {
		from, _ := domain.ParseAddress(def.From)
		to, _ := domain.ParseAddress(def.To)
		if err := p.Connect(from.Process, from.Port, to.Process, to.Port); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func buildCluster(def ClusterDef, f Factory) (*process.Cluster, error) {
	typ := def.Type
	if typ == "" {
		typ = DefaultClusterType
	}
	cfg := config.FromMap(def.Config)
	if err := cfg.SetValue(process.KeyType, typ); err != nil {
		return nil, err
	}
	if err := cfg.SetValue(process.KeyName, def.Name); err != nil {
		return nil, err
	}
	c := process.NewCluster(def.Name, typ, cfg)

	wrap := func(err error) error { return fmt.Errorf("cluster %s: %w", def.Name, err) }

	for _, pd := range def.Processes {
		proc, err := f.Create(pd.Type, pd.Name, config.FromMap(pd.Config))
		if err != nil {
			return nil, wrap(fmt.Errorf("process %s: %w", pd.Name, err))
		}
		if err := c.AddMember(proc); err != nil {
			return nil, wrap(err)
		}
	}
	for _, nd := range def.Clusters {
		nested, err := buildCluster(nd, f)
		if err != nil {
			return nil, wrap(err)
		}
		if err := c.AddMember(nested); err != nil {
			return nil, wrap(err)
		}
	}
	for _, m := range def.Inputs {
		to, _ := domain.ParseAddress(m.To)
		if err := c.MapInput(m.Port, to); err != nil {
			return nil, wrap(err)
		}
	}
	for _, m := range def.Outputs {
		to, _ := domain.ParseAddress(m.To)
		if err := c.MapOutput(m.Port, to); err != nil {
			return nil, wrap(err)
		}
	}
	for _, cd := range def.Connections {
		from, _ := domain.ParseAddress(cd.From)
		to, _ := domain.ParseAddress(cd.To)
		c.Connect(from, to)
	}
	return c, nil
}
