package pipeline

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/aretw0/flume/pkg/domain"
	"github.com/aretw0/flume/pkg/edge"
	"github.com/aretw0/flume/pkg/process"
)

// Connect links an output port to an input port. Either side may name a
// cluster port; it is resolved to the mapped member before the edge is built.
// A second connection from the same output fans out on the existing edge.
func (p *Pipeline) Connect(srcProc, srcPort, dstProc, dstPort string) error {
	if err := p.checkMutable(); err != nil {
		return err
	}
	conn, err := p.link(
		domain.Address{Process: srcProc, Port: srcPort},
		domain.Address{Process: dstProc, Port: dstPort},
	)
	if err != nil {
		return err
	}

	p.logger.Debug("ports connected", "from", conn.From.String(), "to", conn.To.String())
	p.emitConnection(domain.EventConnected, conn)
	return nil
}

// link validates and records one connection; it returns the resolved addresses.
func (p *Pipeline) link(from, to domain.Address) (domain.Connection, error) {
	src, srcInfo, srcErr := p.resolve(from, process.Output)
	dst, dstInfo, dstErr := p.resolve(to, process.Input)
	if err := firstResolveError(srcErr, dstErr); err != nil {
		return domain.Connection{}, err
	}

	if !process.Compatible(srcInfo.Type, dstInfo.Type) {
		return domain.Connection{}, domain.NewError(domain.ErrPortTypeMismatch, to.Process, to.Port,
			fmt.Sprintf("%s declares %q, input expects %q", from, srcInfo.Type, dstInfo.Type))
	}
	if srcInfo.Flags.Has(process.Const) && dstInfo.Flags.Has(process.Mutable) {
		return domain.Connection{}, domain.NewError(domain.ErrFlagMismatch, to.Process, to.Port,
			fmt.Sprintf("mutable input cannot receive const output %s", from))
	}
	if prev, ok := p.inbound[dst]; ok {
		return domain.Connection{}, domain.NewError(domain.ErrInputAlreadyConnected, to.Process, to.Port,
			"fed by "+prev.String())
	}

	e := p.edges[src]
	if e == nil {
		capacity, err := p.capacityFor(src, srcInfo)
		if err != nil {
			return domain.Connection{}, err
		}
		e = edge.New(src, srcInfo.Type, capacity)
		p.edges[src] = e
		p.edgeOrder = append(p.edgeOrder, src)
	}
	if err := e.AddDestination(dst); err != nil {
		return domain.Connection{}, err
	}
	p.inbound[dst] = src
	p.retype(e)

	return domain.Connection{From: src, To: dst}, nil
}

// Disconnect removes one destination from the edge leaving the source port,
// and the edge itself once it has no destinations left.
func (p *Pipeline) Disconnect(srcProc, srcPort, dstProc, dstPort string) error {
	if err := p.checkMutable(); err != nil {
		return err
	}
	from := domain.Address{Process: srcProc, Port: srcPort}
	to := domain.Address{Process: dstProc, Port: dstPort}

	src, _, srcErr := p.resolve(from, process.Output)
	dst, _, dstErr := p.resolve(to, process.Input)
	if err := firstResolveError(srcErr, dstErr); err != nil {
		return &domain.Error{Kind: domain.ErrNoSuchConnection, Process: to.Process, Port: to.Port, Reason: from.String() + " is not connected", Err: err}
	}
	e, ok := p.edges[src]
	if !ok || p.inbound[dst] != src {
		return domain.NewError(domain.ErrNoSuchConnection, to.Process, to.Port, from.String()+" does not feed it")
	}

	if _, err := e.RemoveDestination(dst); err != nil {
		return err
	}
	delete(p.inbound, dst)
	if len(e.Destinations()) == 0 {
		p.dropEdge(src)
	} else {
		p.retype(e)
	}

	conn := domain.Connection{From: src, To: dst}
	p.logger.Debug("ports disconnected", "from", conn.From.String(), "to", conn.To.String())
	p.emitConnection(domain.EventDisconnected, conn)
	return nil
}

// resolve follows cluster mappings until addr names a registered process and
// checks that the port exists in the wanted direction.
func (p *Pipeline) resolve(addr domain.Address, dir process.Direction) (domain.Address, process.PortInfo, error) {
	orig := addr
	for {
		if c, ok := p.clusters[addr.Process]; ok {
			target, ok := c.Mapping(dir, addr.Port)
			if !ok {
				return domain.Address{}, process.PortInfo{}, portError(orig, dir, func() bool {
					_, other := c.Mapping(opposite(dir), addr.Port)
					return other
				})
			}
			addr = target
			continue
		}

		proc, ok := p.processes[addr.Process]
		if !ok {
			return domain.Address{}, process.PortInfo{}, domain.NewError(domain.ErrNoSuchProcess, addr.Process, "", "")
		}
		info, ok := process.Port(proc, dir, addr.Port)
		if !ok {
			return domain.Address{}, process.PortInfo{}, portError(orig, dir, func() bool {
				_, other := process.Port(proc, opposite(dir), addr.Port)
				return other
			})
		}
		return addr, info, nil
	}
}

func portError(addr domain.Address, dir process.Direction, existsOtherWay func() bool) error {
	if existsOtherWay() {
		return domain.NewError(domain.ErrWrongDirection, addr.Process, addr.Port, "expected an "+dir.String())
	}
	return domain.NewError(domain.ErrNoSuchPort, addr.Process, addr.Port, "")
}

// Lookup failures win over direction failures so callers fix names first.
func firstResolveError(errs ...error) error {
	for _, err := range errs {
		if err != nil && !errors.Is(err, domain.ErrWrongDirection) {
			return err
		}
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func opposite(dir process.Direction) process.Direction {
	if dir == process.Input {
		return process.Output
	}
	return process.Input
}

// capacityFor picks the queue depth of a new edge: source port, then the
// source process config, then the pipeline config, then the default.
func (p *Pipeline) capacityFor(src domain.Address, info process.PortInfo) (int, error) {
	if info.Capacity > 0 {
		return info.Capacity, nil
	}
	if v, ok := p.processes[src.Process].Config().Value(KeyEdgeCapacity); ok {
		return parseCapacity(src.Process, v)
	}
	if v, ok := p.cfg.Value(KeyEdgeCapacity); ok {
		return parseCapacity("", v)
	}
	return edge.DefaultCapacity, nil
}

func parseCapacity(owner, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, domain.NewError(domain.ErrInvalidConfiguration, owner, "",
			fmt.Sprintf("%s must be a positive integer, got %q", KeyEdgeCapacity, v))
	}
	return n, nil
}
