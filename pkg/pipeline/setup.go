package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/flume/pkg/config"
	"github.com/aretw0/flume/pkg/domain"
	"github.com/aretw0/flume/pkg/process"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// SetupPipeline validates the graph and freezes it. It runs once per reset:
// required inputs must be connected, the graph must be acyclic unless cycles
// are allowed, and every Configurable process must accept its config.
//
// A failed setup leaves the graph intact and the pipeline in SetupFailed, so
// the cause can be inspected before Reset.
func (p *Pipeline) SetupPipeline() error {
	if p.state != Unconfigured {
		return domain.NewError(domain.ErrAlreadySetUp, "", "", "setup already attempted")
	}

	start := time.Now()
	err := p.prepare()
	event := &domain.LifecycleEvent{
		EventBase: p.base(domain.EventSetup),
		Success:   err == nil,
		Err:       err,
		Duration:  time.Since(start),
		Processes: len(p.processOrder),
		Edges:     len(p.edgeOrder),
	}

	if err != nil {
		p.state = SetupFailed
		p.setupErr = err
		p.logger.Warn("pipeline setup failed", "error", err)
		p.emitLifecycle(event)
		return err
	}

	for _, src := range p.edgeOrder {
		p.edges[src].Freeze()
	}
	p.state = SetUp
	p.logger.Info("pipeline set up", "processes", len(p.processOrder), "edges", len(p.edgeOrder), "duration", event.Duration)
	p.emitLifecycle(event)
	return nil
}

func (p *Pipeline) prepare() error {
	if err := p.checkRequired(); err != nil {
		return err
	}
	order, err := p.topoOrder(!p.CyclesAllowed())
	if err != nil {
		return err
	}
	for _, name := range p.processOrder {
		c, ok := p.processes[name].(process.Configurable)
		if !ok {
			continue
		}
		if err := c.Configure(); err != nil {
			return &domain.Error{Kind: domain.ErrInvalidConfiguration, Process: name, Err: err}
		}
	}
	p.order = order
	return nil
}

func (p *Pipeline) checkRequired() error {
	for _, name := range p.processOrder {
		for _, in := range p.processes[name].InputPorts() {
			if !in.Flags.Has(process.Required) {
				continue
			}
			if _, ok := p.inbound[domain.Address{Process: name, Port: in.Name}]; !ok {
				return domain.NewError(domain.ErrMissingRequiredConnection, name, in.Name, "required input has no incoming edge")
			}
		}
	}
	return nil
}

// topoOrder sorts processes upstream first. Edges into NoDep inputs are
// back-edges and do not constrain the order. With strict set, any remaining
// cycle is an error; otherwise each cycle is placed in insertion order.
func (p *Pipeline) topoOrder(strict bool) ([]string, error) {
	g := simple.NewDirectedGraph()
	ids := make(map[string]int64, len(p.processOrder))
	for i, name := range p.processOrder {
		ids[name] = int64(i)
		g.AddNode(simple.Node(i))
	}

	for _, src := range p.edgeOrder {
		for _, dst := range p.edges[src].Destinations() {
			in, _ := process.InputPort(p.processes[dst.Process], dst.Port)
			if in.Flags.Has(process.NoDep) {
				continue
			}
			if src.Process == dst.Process {
				if strict {
					return nil, domain.NewError(domain.ErrCyclicGraph, src.Process, "",
						fmt.Sprintf("%s feeds its own input %s", src, dst.Port))
				}
				continue
			}
			u, v := ids[src.Process], ids[dst.Process]
			if !g.HasEdgeFromTo(u, v) {
				g.SetEdge(g.NewEdge(simple.Node(u), simple.Node(v)))
			}
		}
	}

	sorted, err := topo.SortStabilized(g, nil)
	var cycles topo.Unorderable
	if err != nil && !errors.As(err, &cycles) {
		return nil, err
	}
	if len(cycles) > 0 && strict {
		return nil, domain.NewError(domain.ErrCyclicGraph, "", "",
			"cycle through "+strings.Join(p.nodeNames(cycles[0]), ", "))
	}

	order := make([]string, 0, len(p.processOrder))
	next := 0
	for _, n := range sorted {
		if n == nil {
			order = append(order, p.nodeNames(cycles[next])...)
			next++
			continue
		}
		order = append(order, p.processOrder[n.ID()])
	}
	return order, nil
}

func (p *Pipeline) nodeNames(nodes []graph.Node) []string {
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = p.processOrder[n.ID()]
	}
	return names
}

// Reconfigure replaces the pipeline config and hands each Reconfigurable
// process the block stored under its name. It is legal in any state and
// never touches the topology. Every process is offered its block even when
// an earlier one fails; all failures are returned together.
func (p *Pipeline) Reconfigure(cfg *config.Config) error {
	p.cfg = cfg.Clone()

	var errs []error
	for _, name := range p.processOrder {
		r, ok := p.processes[name].(process.Reconfigurable)
		if !ok {
			continue
		}
		if err := r.Reconfigure(p.cfg.Subblock(name)); err != nil {
			errs = append(errs, &domain.Error{Kind: domain.ErrInvalidConfiguration, Process: name, Err: err})
		}
	}
	err := errors.Join(errs...)

	p.logger.Debug("pipeline reconfigured", "keys", p.cfg.Len(), "failures", len(errs))
	p.emitLifecycle(&domain.LifecycleEvent{
		EventBase: p.base(domain.EventReconfigured),
		Success:   err == nil,
		Err:       err,
		Processes: len(p.processOrder),
		Edges:     len(p.edgeOrder),
	})
	return err
}

// Reset drops every process, cluster, edge and config key and returns the
// pipeline to Unconfigured. It is legal in any state.
func (p *Pipeline) Reset() {
	p.clear()
	p.cfg = config.Empty()

	p.logger.Debug("pipeline reset")
	p.emitLifecycle(&domain.LifecycleEvent{EventBase: p.base(domain.EventReset), Success: true})
}
