package pipeline

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/aretw0/flume/pkg/domain"
	"github.com/aretw0/flume/pkg/edge"
	"github.com/aretw0/flume/pkg/process"
)

// AddProcess registers proc. A *process.Cluster is registered as a cluster,
// together with its members.
func (p *Pipeline) AddProcess(proc process.Process) error {
	if err := p.checkMutable(); err != nil {
		return err
	}
	if c, ok := proc.(*process.Cluster); ok {
		return p.addCluster(c)
	}

	name := proc.Name()
	if err := p.checkName(name); err != nil {
		return err
	}
	p.processes[name] = proc
	p.processOrder = append(p.processOrder, name)

	p.logger.Debug("process added", "process", name, "type", proc.Type())
	p.emitGraph(domain.EventProcessAdded, name, false)
	return nil
}

// AddCluster registers c, its nested clusters, its member processes and its
// internal connections. Either all of it is registered or none of it is.
func (p *Pipeline) AddCluster(c *process.Cluster) error {
	if err := p.checkMutable(); err != nil {
		return err
	}
	return p.addCluster(c)
}

func (p *Pipeline) addCluster(c *process.Cluster) error {
	all := append([]*process.Cluster{c}, c.Nested()...)
	leaves := c.Leaves()

	seen := make(map[string]bool)
	claim := func(name string) error {
		if err := p.checkName(name); err != nil {
			return err
		}
		if seen[name] {
			return domain.NewError(domain.ErrDuplicateName, name, "", "name used twice inside cluster "+c.Name())
		}
		seen[name] = true
		return nil
	}
	for _, cl := range all {
		if err := claim(cl.Name()); err != nil {
			return err
		}
		if len(cl.Members()) == 0 {
			return domain.NewError(domain.ErrInvalidConfiguration, cl.Name(), "", "cluster has no members")
		}
	}
	for _, leaf := range leaves {
		if err := claim(leaf.Name()); err != nil {
			return err
		}
	}
	for _, cl := range all {
		if err := validateMappings(cl); err != nil {
			return err
		}
	}

	snap := p.snapshot()
	for _, cl := range all {
		p.clusters[cl.Name()] = cl
		p.clusterOrder = append(p.clusterOrder, cl.Name())
		for _, m := range cl.Members() {
			p.owner[m.Name()] = cl.Name()
		}
	}
	for _, leaf := range leaves {
		p.processes[leaf.Name()] = leaf
		p.processOrder = append(p.processOrder, leaf.Name())
	}

	// Innermost clusters connect first so outer connections can rely on them.
	var linked []domain.Connection
	for i := len(all) - 1; i >= 0; i-- {
		cl := all[i]
		for _, conn := range cl.Connections() {
			for _, end := range []domain.Address{conn.From, conn.To} {
				if _, ok := cl.Member(end.Process); !ok {
					p.restore(snap)
					return domain.NewError(domain.ErrUnknownProcess, end.Process, "", "internal connection of cluster "+cl.Name()+" leaves the cluster")
				}
			}
			made, err := p.link(conn.From, conn.To)
			if err != nil {
				p.restore(snap)
				return fmt.Errorf("cluster %s: %w", cl.Name(), err)
			}
			linked = append(linked, made)
		}
	}

	p.logger.Debug("cluster added", "cluster", c.Name(), "type", c.Type(), "processes", len(leaves))
	for _, cl := range all {
		p.emitGraph(domain.EventClusterAdded, cl.Name(), true)
	}
	for _, leaf := range leaves {
		p.emitGraph(domain.EventProcessAdded, leaf.Name(), false)
	}
	for _, conn := range linked {
		p.emitConnection(domain.EventConnected, conn)
	}
	return nil
}

// Every mapping must target a direct member, which may itself be a nested
// cluster, and a port that member declares in the same direction.
func validateMappings(cl *process.Cluster) error {
	check := func(dir process.Direction, mappings []process.Mapping) error {
		for _, m := range mappings {
			member, ok := cl.Member(m.Target.Process)
			if !ok {
				return domain.NewError(domain.ErrUnknownProcess, m.Target.Process, "",
					fmt.Sprintf("cluster %s maps %s port %q to a process it does not contain", cl.Name(), dir, m.Port))
			}
			if _, ok := process.Port(member, dir, m.Target.Port); ok {
				continue
			}
			if _, ok := process.Port(member, opposite(dir), m.Target.Port); ok {
				return domain.NewError(domain.ErrWrongDirection, m.Target.Process, m.Target.Port,
					fmt.Sprintf("cluster %s maps it as an %s", cl.Name(), dir))
			}
			return domain.NewError(domain.ErrNoSuchPort, m.Target.Process, m.Target.Port,
				"mapped by cluster "+cl.Name())
		}
		return nil
	}
	if err := check(process.Input, cl.InputMappings()); err != nil {
		return err
	}
	return check(process.Output, cl.OutputMappings())
}

// RemoveProcess removes a process and every edge touching it. Naming a
// cluster removes the whole cluster.
func (p *Pipeline) RemoveProcess(name string) error {
	if err := p.checkMutable(); err != nil {
		return err
	}
	if _, ok := p.clusters[name]; ok {
		return p.removeCluster(name)
	}
	if _, ok := p.processes[name]; !ok {
		return domain.NewError(domain.ErrNoSuchProcess, name, "", "")
	}
	if owner, ok := p.owner[name]; ok {
		return domain.NewError(domain.ErrClusterMember, name, "", "remove cluster "+p.rootCluster(owner)+" instead")
	}

	p.unregisterProcess(name)
	p.logger.Debug("process removed", "process", name)
	p.emitGraph(domain.EventProcessRemoved, name, false)
	return nil
}

// RemoveCluster removes a top-level cluster with all of its members and their edges.
func (p *Pipeline) RemoveCluster(name string) error {
	if err := p.checkMutable(); err != nil {
		return err
	}
	return p.removeCluster(name)
}

func (p *Pipeline) removeCluster(name string) error {
	c, ok := p.clusters[name]
	if !ok {
		return domain.NewError(domain.ErrNoSuchCluster, name, "", "")
	}
	if owner, ok := p.owner[name]; ok {
		return domain.NewError(domain.ErrClusterMember, name, "", "remove cluster "+p.rootCluster(owner)+" instead")
	}

	leaves := c.Leaves()
	for _, leaf := range leaves {
		p.unregisterProcess(leaf.Name())
	}
	all := append([]*process.Cluster{c}, c.Nested()...)
	for _, cl := range all {
		delete(p.clusters, cl.Name())
		delete(p.owner, cl.Name())
		p.clusterOrder = removeName(p.clusterOrder, cl.Name())
	}

	p.logger.Debug("cluster removed", "cluster", name, "processes", len(leaves))
	for _, leaf := range leaves {
		p.emitGraph(domain.EventProcessRemoved, leaf.Name(), false)
	}
	for _, cl := range all {
		p.emitGraph(domain.EventClusterRemoved, cl.Name(), true)
	}
	return nil
}

func (p *Pipeline) rootCluster(name string) string {
	for {
		parent, ok := p.owner[name]
		if !ok {
			return name
		}
		name = parent
	}
}

func (p *Pipeline) checkName(name string) error {
	if name == "" || strings.Contains(name, ".") {
		return domain.NewError(domain.ErrInvalidConfiguration, name, "", "names must be non-empty and contain no '.'")
	}
	if _, ok := p.processes[name]; ok {
		return domain.NewError(domain.ErrDuplicateName, name, "", "a process has this name")
	}
	if _, ok := p.clusters[name]; ok {
		return domain.NewError(domain.ErrDuplicateName, name, "", "a cluster has this name")
	}
	return nil
}

func (p *Pipeline) unregisterProcess(name string) {
	p.severEdges(name)
	delete(p.processes, name)
	delete(p.owner, name)
	p.processOrder = removeName(p.processOrder, name)
}

// severEdges drops every edge leaving name and every destination on name.
func (p *Pipeline) severEdges(name string) {
	for _, src := range slices.Clone(p.edgeOrder) {
		e := p.edges[src]
		if src.Process == name {
			for _, dst := range e.Destinations() {
				delete(p.inbound, dst)
			}
			p.dropEdge(src)
			continue
		}
		for _, dst := range e.Destinations() {
			if dst.Process == name {
				_, _ = e.RemoveDestination(dst)
				delete(p.inbound, dst)
			}
		}
		if len(e.Destinations()) == 0 {
			p.dropEdge(src)
		} else {
			p.retype(e)
		}
	}
}

func (p *Pipeline) dropEdge(src domain.Address) {
	delete(p.edges, src)
	if i := slices.Index(p.edgeOrder, src); i >= 0 {
		p.edgeOrder = slices.Delete(p.edgeOrder, i, i+1)
	}
}

// retype recomputes the tag of an edge whose source is untyped. The tag is
// informational only: it names the destinations' type when every concrete
// destination agrees and stays untyped otherwise.
func (p *Pipeline) retype(e *edge.Edge) {
	proc, ok := p.processes[e.Source().Process]
	if !ok {
		return
	}
	info, ok := process.OutputPort(proc, e.Source().Port)
	if !ok || info.Type != process.TypeAny {
		return
	}
	t := process.TypeAny
	for _, dst := range e.Destinations() {
		in, ok := process.InputPort(p.processes[dst.Process], dst.Port)
		if !ok || in.Type == process.TypeAny {
			continue
		}
		if t == process.TypeAny {
			t = in.Type
		} else if t != in.Type {
			t = process.TypeAny
			break
		}
	}
	_ = e.SetType(t)
}

func removeName(names []string, name string) []string {
	if i := slices.Index(names, name); i >= 0 {
		return slices.Delete(names, i, i+1)
	}
	return names
}

type snapshot struct {
	processes    map[string]process.Process
	processOrder []string
	clusters     map[string]*process.Cluster
	clusterOrder []string
	owner        map[string]string
	edges        map[domain.Address]*edge.Edge
	edgeOrder    []domain.Address
	inbound      map[domain.Address]domain.Address
}

// snapshot copies the bookkeeping maps. Existing edges are shared, so it only
// protects operations that create edges rather than extend them.
func (p *Pipeline) snapshot() snapshot {
	return snapshot{
		processes:    maps.Clone(p.processes),
		processOrder: slices.Clone(p.processOrder),
		clusters:     maps.Clone(p.clusters),
		clusterOrder: slices.Clone(p.clusterOrder),
		owner:        maps.Clone(p.owner),
		edges:        maps.Clone(p.edges),
		edgeOrder:    slices.Clone(p.edgeOrder),
		inbound:      maps.Clone(p.inbound),
	}
}

func (p *Pipeline) restore(s snapshot) {
	p.processes = s.processes
	p.processOrder = s.processOrder
	p.clusters = s.clusters
	p.clusterOrder = s.clusterOrder
	p.owner = s.owner
	p.edges = s.edges
	p.edgeOrder = s.edgeOrder
	p.inbound = s.inbound
}
