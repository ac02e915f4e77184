package pipeline

import (
	"slices"

	"github.com/aretw0/flume/pkg/domain"
	"github.com/aretw0/flume/pkg/edge"
	"github.com/aretw0/flume/pkg/process"
)

// ProcessNames returns every registered process, cluster members included,
// in insertion order.
func (p *Pipeline) ProcessNames() []string { return slices.Clone(p.processOrder) }

// ClusterNames returns every registered cluster, nested ones included, in
// insertion order.
func (p *Pipeline) ClusterNames() []string { return slices.Clone(p.clusterOrder) }

// ProcessByName returns a registered process.
func (p *Pipeline) ProcessByName(name string) (process.Process, error) {
	proc, ok := p.processes[name]
	if !ok {
		return nil, domain.NewError(domain.ErrNoSuchProcess, name, "", "")
	}
	return proc, nil
}

// ClusterByName returns a registered cluster.
func (p *Pipeline) ClusterByName(name string) (*process.Cluster, error) {
	c, ok := p.clusters[name]
	if !ok {
		return nil, domain.NewError(domain.ErrNoSuchCluster, name, "", "")
	}
	return c, nil
}

// ClusterOf returns the cluster directly containing name.
func (p *Pipeline) ClusterOf(name string) (string, bool) {
	owner, ok := p.owner[name]
	return owner, ok
}

// ProcessOrder returns the upstream-first order computed by a successful setup.
func (p *Pipeline) ProcessOrder() []string { return slices.Clone(p.order) }

// Edges returns every edge in creation order.
func (p *Pipeline) Edges() []*edge.Edge {
	out := make([]*edge.Edge, 0, len(p.edgeOrder))
	for _, src := range p.edgeOrder {
		out = append(out, p.edges[src])
	}
	return out
}

// Connections returns every source/destination pair in edge creation order.
func (p *Pipeline) Connections() []domain.Connection {
	var out []domain.Connection
	for _, src := range p.edgeOrder {
		for _, dst := range p.edges[src].Destinations() {
			out = append(out, domain.Connection{From: src, To: dst})
		}
	}
	return out
}

// ConnectionsFromAddr returns the inputs fed by an output port. An unconnected
// output yields an empty slice.
func (p *Pipeline) ConnectionsFromAddr(proc, port string) ([]domain.Address, error) {
	src, _, err := p.resolve(domain.Address{Process: proc, Port: port}, process.Output)
	if err != nil {
		return nil, err
	}
	e, ok := p.edges[src]
	if !ok {
		return []domain.Address{}, nil
	}
	return e.Destinations(), nil
}

// ConnectionToAddr returns the output feeding an input port.
func (p *Pipeline) ConnectionToAddr(proc, port string) (domain.Address, error) {
	dst, _, err := p.resolve(domain.Address{Process: proc, Port: port}, process.Input)
	if err != nil {
		return domain.Address{}, err
	}
	src, ok := p.inbound[dst]
	if !ok {
		return domain.Address{}, domain.NewError(domain.ErrNotConnected, proc, port, "input has no source")
	}
	return src, nil
}

// SenderForPort returns the output feeding an input port.
func (p *Pipeline) SenderForPort(proc, port string) (domain.Address, error) {
	return p.ConnectionToAddr(proc, port)
}

// ReceiversForPort returns the inputs fed by an output port.
func (p *Pipeline) ReceiversForPort(proc, port string) ([]domain.Address, error) {
	return p.ConnectionsFromAddr(proc, port)
}

// UpstreamForPort returns the outputs feeding an input port: zero or one address.
func (p *Pipeline) UpstreamForPort(proc, port string) ([]domain.Address, error) {
	src, err := p.ConnectionToAddr(proc, port)
	if err != nil {
		if domain.KindOf(err) == domain.ErrNotConnected {
			return []domain.Address{}, nil
		}
		return nil, err
	}
	return []domain.Address{src}, nil
}

// DownstreamForPort returns the inputs fed by an output port.
func (p *Pipeline) DownstreamForPort(proc, port string) ([]domain.Address, error) {
	return p.ConnectionsFromAddr(proc, port)
}

// UpstreamForProcess returns the distinct processes feeding name. For a
// cluster, only processes outside it count.
func (p *Pipeline) UpstreamForProcess(name string) ([]string, error) {
	edges, err := p.InputEdgesForProcess(name)
	if err != nil {
		return nil, err
	}
	out := []string{}
	for _, e := range edges {
		if !slices.Contains(out, e.Source().Process) {
			out = append(out, e.Source().Process)
		}
	}
	return out, nil
}

// DownstreamForProcess returns the distinct processes fed by name. For a
// cluster, only processes outside it count.
func (p *Pipeline) DownstreamForProcess(name string) ([]string, error) {
	leaves, inside, err := p.scope(name)
	if err != nil {
		return nil, err
	}
	out := []string{}
	for _, leaf := range leaves {
		for _, port := range leaf.OutputPorts() {
			e, ok := p.edges[domain.Address{Process: leaf.Name(), Port: port.Name}]
			if !ok {
				continue
			}
			for _, dst := range e.Destinations() {
				if !inside[dst.Process] && !slices.Contains(out, dst.Process) {
					out = append(out, dst.Process)
				}
			}
		}
	}
	return out, nil
}

// EdgeForConnection returns the edge carrying from into to.
func (p *Pipeline) EdgeForConnection(srcProc, srcPort, dstProc, dstPort string) (*edge.Edge, error) {
	from := domain.Address{Process: srcProc, Port: srcPort}
	to := domain.Address{Process: dstProc, Port: dstPort}
	src, _, srcErr := p.resolve(from, process.Output)
	dst, _, dstErr := p.resolve(to, process.Input)
	if err := firstResolveError(srcErr, dstErr); err != nil {
		return nil, err
	}
	e, ok := p.edges[src]
	if !ok || !e.Feeds(dst) {
		return nil, domain.NewError(domain.ErrNoSuchConnection, dstProc, dstPort, from.String()+" does not feed it")
	}
	return e, nil
}

// InputEdgesForProcess returns the distinct edges feeding name's inputs, in
// port order. For a cluster, edges internal to it are left out.
func (p *Pipeline) InputEdgesForProcess(name string) ([]*edge.Edge, error) {
	leaves, inside, err := p.scope(name)
	if err != nil {
		return nil, err
	}
	out := []*edge.Edge{}
	for _, leaf := range leaves {
		for _, port := range leaf.InputPorts() {
			src, ok := p.inbound[domain.Address{Process: leaf.Name(), Port: port.Name}]
			if !ok || inside[src.Process] {
				continue
			}
			if e := p.edges[src]; !slices.Contains(out, e) {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

// OutputEdgesForProcess returns the edges leaving name's outputs, in port
// order. For a cluster, edges feeding only members are left out.
func (p *Pipeline) OutputEdgesForProcess(name string) ([]*edge.Edge, error) {
	leaves, inside, err := p.scope(name)
	if err != nil {
		return nil, err
	}
	out := []*edge.Edge{}
	for _, leaf := range leaves {
		for _, port := range leaf.OutputPorts() {
			e, ok := p.edges[domain.Address{Process: leaf.Name(), Port: port.Name}]
			if !ok {
				continue
			}
			if slices.ContainsFunc(e.Destinations(), func(d domain.Address) bool { return !inside[d.Process] }) {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

// InputEdgeForPort returns the edge feeding an input port.
func (p *Pipeline) InputEdgeForPort(proc, port string) (*edge.Edge, error) {
	src, err := p.ConnectionToAddr(proc, port)
	if err != nil {
		return nil, err
	}
	return p.edges[src], nil
}

// OutputEdgesForPort returns the edges leaving an output port. Fan-out shares
// one edge, so the result holds at most one element.
func (p *Pipeline) OutputEdgesForPort(proc, port string) ([]*edge.Edge, error) {
	src, _, err := p.resolve(domain.Address{Process: proc, Port: port}, process.Output)
	if err != nil {
		return nil, err
	}
	if e, ok := p.edges[src]; ok {
		return []*edge.Edge{e}, nil
	}
	return []*edge.Edge{}, nil
}

// scope returns the processes a process-level query covers and the set of
// names treated as internal to it.
func (p *Pipeline) scope(name string) ([]process.Process, map[string]bool, error) {
	if proc, ok := p.processes[name]; ok {
		return []process.Process{proc}, map[string]bool{}, nil
	}
	if c, ok := p.clusters[name]; ok {
		leaves := c.Leaves()
		inside := make(map[string]bool, len(leaves))
		for _, l := range leaves {
			inside[l.Name()] = true
		}
		return leaves, inside, nil
	}
	return nil, nil, domain.NewError(domain.ErrNoSuchProcess, name, "", "")
}
