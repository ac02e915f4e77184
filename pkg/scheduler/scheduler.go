// Package scheduler runs a set-up pipeline: one goroutine per steppable
// process, exchanging data over the pipeline's frozen edges.
//
// A run ends when every terminal process (one with no outgoing edges) has
// completed. Processes still producing at that point, such as constant
// sources, are cancelled.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/aretw0/flume/pkg/domain"
	"github.com/aretw0/flume/pkg/edge"
	"github.com/aretw0/flume/pkg/pipeline"
	"github.com/aretw0/flume/pkg/process"
)

// Scheduler drives the processes of one pipeline.
type Scheduler struct {
	p       *pipeline.Pipeline
	logger  *slog.Logger
	limit   rate.Limit
	burst   int
	onStep  func(proc string)
	mu      sync.Mutex
	steps   map[string]int64
	running atomic.Bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the scheduler logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithRateLimit caps how many steps per second each process may take.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *Scheduler) {
		s.limit = rate.Limit(perSecond)
		s.burst = max(burst, 1)
	}
}

// WithStepHook registers a callback invoked after every successful step.
func WithStepHook(fn func(proc string)) Option {
	return func(s *Scheduler) {
		s.onStep = fn
	}
}

// New creates a scheduler for p.
func New(p *pipeline.Pipeline, opts ...Option) *Scheduler {
	s := &Scheduler{
		p:      p,
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
		limit:  rate.Inf,
		steps:  make(map[string]int64),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("pipeline", p.ID())
	return s
}

// ErrRunning is returned when Run is called while a run is in progress.
var ErrRunning = errors.New("scheduler already running")

// Run executes the pipeline until every terminal process completes, a
// process fails or ctx is cancelled. Edges keep their end-of-data marks
// afterwards, so a pipeline runs once per setup.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.p.SetupSuccessful() {
		return domain.NewError(domain.ErrNotSetUp, "", "", "pipeline must be set up successfully before running")
	}
	if !s.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer s.running.Store(false)

	workers, err := s.plan()
	if err != nil {
		return err
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	terminals := 0
	for _, w := range workers {
		if w.terminal {
			terminals++
		}
	}
	var pending atomic.Int64
	pending.Store(int64(terminals))

	start := time.Now()
	s.logger.Info("pipeline run started", "processes", len(workers), "terminals", terminals)

	g, gctx := errgroup.WithContext(runCtx)
	for _, w := range workers {
		g.Go(func() error {
			err := s.drive(gctx, w)
			if err == nil && w.terminal && pending.Add(-1) == 0 {
				stop()
			}
			return err
		})
	}
	err = g.Wait()
	s.closeAll(workers)

	finished := terminals > 0 && pending.Load() == 0
	switch {
	case ctx.Err() != nil:
		err = ctx.Err()
	case finished && errors.Is(err, context.Canceled):
		err = nil
	}

	if err != nil {
		s.logger.Warn("pipeline run failed", "err", err, "duration", time.Since(start))
		return err
	}
	s.logger.Info("pipeline run finished", "duration", time.Since(start))
	return nil
}

// Steps returns how many successful steps each process took in the last run.
func (s *Scheduler) Steps() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.steps))
	for k, v := range s.steps {
		out[k] = v
	}
	return out
}

type worker struct {
	name     string
	proc     process.Process
	step     process.Steppable
	io       *portIO
	terminal bool
	limiter  *rate.Limiter
}

// plan wires a worker for every process in setup order. Processes that cannot
// step complete their outputs immediately.
func (s *Scheduler) plan() ([]*worker, error) {
	s.mu.Lock()
	s.steps = make(map[string]int64)
	s.mu.Unlock()

	var workers []*worker
	for _, name := range s.p.ProcessOrder() {
		proc, err := s.p.ProcessByName(name)
		if err != nil {
			return nil, err
		}
		pio, err := newPortIO(s.p, proc)
		if err != nil {
			return nil, err
		}
		st, ok := proc.(process.Steppable)
		if !ok {
			s.logger.Debug("process cannot step, completing its outputs", "process", name)
			if err := pio.complete(context.Background()); err != nil {
				return nil, err
			}
			continue
		}
		workers = append(workers, &worker{
			name:     name,
			proc:     proc,
			step:     st,
			io:       pio,
			terminal: len(pio.outputs) == 0,
			limiter:  rate.NewLimiter(s.limit, s.burst),
		})
	}
	return workers, nil
}

func (s *Scheduler) drive(ctx context.Context, w *worker) error {
	for {
		if err := w.limiter.Wait(ctx); err != nil {
			return err
		}
		err := w.step.Step(ctx, w.io)
		if errors.Is(err, process.ErrComplete) {
			s.logger.Debug("process complete", "process", w.name)
			return w.io.complete(ctx)
		}
		if err != nil {
			return fmt.Errorf("process %s: %w", w.name, err)
		}
		s.mu.Lock()
		s.steps[w.name]++
		s.mu.Unlock()
		if s.onStep != nil {
			s.onStep(w.name)
		}
	}
}

func (s *Scheduler) closeAll(workers []*worker) {
	for _, w := range workers {
		c, ok := w.proc.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			s.logger.Warn("failed to close process", "process", w.name, "err", err)
		}
	}
}

// portIO binds a process's ports to the pipeline edges.
type portIO struct {
	proc    process.Process
	inputs  map[string]*edge.Edge
	outputs map[string]*edge.Edge
}

func newPortIO(p *pipeline.Pipeline, proc process.Process) (*portIO, error) {
	pio := &portIO{
		proc:    proc,
		inputs:  make(map[string]*edge.Edge),
		outputs: make(map[string]*edge.Edge),
	}
	for _, port := range proc.InputPorts() {
		e, err := p.InputEdgeForPort(proc.Name(), port.Name)
		if errors.Is(err, domain.ErrNotConnected) {
			continue
		}
		if err != nil {
			return nil, err
		}
		pio.inputs[port.Name] = e
	}
	for _, port := range proc.OutputPorts() {
		edges, err := p.OutputEdgesForPort(proc.Name(), port.Name)
		if err != nil {
			return nil, err
		}
		if len(edges) > 0 {
			pio.outputs[port.Name] = edges[0]
		}
	}
	return pio, nil
}

// Receive pops the next datum for an input. Unconnected inputs read as complete.
func (pio *portIO) Receive(ctx context.Context, port string) (edge.Datum, error) {
	if _, ok := process.InputPort(pio.proc, port); !ok {
		return edge.Datum{}, domain.NewError(domain.ErrNoSuchPort, pio.proc.Name(), port, "no such input port")
	}
	e, ok := pio.inputs[port]
	if !ok {
		return edge.Complete(), nil
	}
	return e.Pop(ctx, domain.Address{Process: pio.proc.Name(), Port: port})
}

// Send pushes d to every receiver of an output. Data sent on an unconnected
// output is dropped.
func (pio *portIO) Send(ctx context.Context, port string, d edge.Datum) error {
	if _, ok := process.OutputPort(pio.proc, port); !ok {
		return domain.NewError(domain.ErrNoSuchPort, pio.proc.Name(), port, "no such output port")
	}
	e, ok := pio.outputs[port]
	if !ok {
		return nil
	}
	return e.Push(ctx, d)
}

func (pio *portIO) complete(ctx context.Context) error {
	for _, e := range pio.outputs {
		if err := e.Push(ctx, edge.Complete()); err != nil && !errors.Is(err, edge.ErrComplete) {
			return err
		}
	}
	return nil
}
