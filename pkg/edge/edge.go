package edge

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/aretw0/flume/pkg/domain"
)

// DefaultCapacity is the queue depth used when neither the port nor any
// config block sets one.
const DefaultCapacity = 10

var (
	// ErrFrozen is returned when changing the destinations of a frozen edge.
	ErrFrozen = errors.New("edge is frozen")
	// ErrNotFrozen is returned when moving data on an edge that has no lanes yet.
	ErrNotFrozen = errors.New("edge has no lanes until setup")
	// ErrComplete is returned by Push after end of data was sent.
	ErrComplete = errors.New("edge is complete")
	// ErrUnknownDestination is returned by Pop for an address the edge does not feed.
	ErrUnknownDestination = errors.New("unknown edge destination")
)

// Edge is a typed, bounded channel from one output port to one or more
// input ports. Destinations may only change before Freeze; data may only
// move after it. After Freeze the edge is safe for concurrent use.
type Edge struct {
	source   domain.Address
	dests    []domain.Address
	dataType string
	capacity int

	lanes    map[domain.Address]chan Datum
	complete atomic.Bool
}

// New creates an edge with no destinations. Capacities below one fall back to
// DefaultCapacity.
func New(source domain.Address, dataType string, capacity int) *Edge {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Edge{source: source, dataType: dataType, capacity: capacity}
}

// Source returns the output port feeding the edge.
func (e *Edge) Source() domain.Address { return e.source }

// Destinations returns the fed input ports in connection order.
func (e *Edge) Destinations() []domain.Address { return slices.Clone(e.dests) }

// Type returns the data type tag carried by the edge.
func (e *Edge) Type() string { return e.dataType }

// Capacity returns the per-destination queue depth.
func (e *Edge) Capacity() int { return e.capacity }

// Frozen reports whether lanes have been allocated.
func (e *Edge) Frozen() bool { return e.lanes != nil }

// Feeds reports whether dst is a destination of e.
func (e *Edge) Feeds(dst domain.Address) bool { return slices.Contains(e.dests, dst) }

// SetType retags the edge.
func (e *Edge) SetType(dataType string) error {
	if e.Frozen() {
		return ErrFrozen
	}
	e.dataType = dataType
	return nil
}

// AddDestination appends dst to the fan-out set.
func (e *Edge) AddDestination(dst domain.Address) error {
	if e.Frozen() {
		return ErrFrozen
	}
	if e.Feeds(dst) {
		return fmt.Errorf("edge %s already feeds %s", e.source, dst)
	}
	e.dests = append(e.dests, dst)
	return nil
}

// RemoveDestination drops dst and reports whether it was present.
func (e *Edge) RemoveDestination(dst domain.Address) (bool, error) {
	if e.Frozen() {
		return false, ErrFrozen
	}
	i := slices.Index(e.dests, dst)
	if i < 0 {
		return false, nil
	}
	e.dests = slices.Delete(e.dests, i, i+1)
	return true, nil
}

// Freeze allocates one bounded lane per destination. It is idempotent.
func (e *Edge) Freeze() {
	if e.Frozen() {
		return
	}
	lanes := make(map[domain.Address]chan Datum, len(e.dests))
	for _, d := range e.dests {
		lanes[d] = make(chan Datum, e.capacity)
	}
	e.lanes = lanes
}

// Push delivers d to every destination, blocking while any lane is full.
// Pushing a Complete datum sets the end-of-data flag; later pushes fail.
func (e *Edge) Push(ctx context.Context, d Datum) error {
	if !e.Frozen() {
		return ErrNotFrozen
	}
	if e.complete.Load() {
		return ErrComplete
	}
	if d.Kind == KindComplete && !e.complete.CompareAndSwap(false, true) {
		return ErrComplete
	}
	for _, dst := range e.dests {
		select {
		case e.lanes[dst] <- d:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Pop takes the next datum queued for dst, blocking while the lane is empty.
func (e *Edge) Pop(ctx context.Context, dst domain.Address) (Datum, error) {
	if !e.Frozen() {
		return Datum{}, ErrNotFrozen
	}
	lane, ok := e.lanes[dst]
	if !ok {
		return Datum{}, fmt.Errorf("%w: %s", ErrUnknownDestination, dst)
	}
	select {
	case d := <-lane:
		return d, nil
	case <-ctx.Done():
		return Datum{}, ctx.Err()
	}
}

// Queued returns how many data wait for dst.
func (e *Edge) Queued(dst domain.Address) int {
	if lane, ok := e.lanes[dst]; ok {
		return len(lane)
	}
	return 0
}

// IsComplete reports whether end of data has been pushed.
func (e *Edge) IsComplete() bool { return e.complete.Load() }

func (e *Edge) String() string {
	return fmt.Sprintf("%s -> %v [%s, cap %d]", e.source, e.dests, e.dataType, e.capacity)
}
