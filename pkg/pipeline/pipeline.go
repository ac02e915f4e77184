package pipeline

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/flume/pkg/config"
	"github.com/aretw0/flume/pkg/domain"
	"github.com/aretw0/flume/pkg/edge"
	"github.com/aretw0/flume/pkg/process"
	"github.com/google/uuid"
)

// Pipeline-level config keys.
const (
	// KeyEdgeCapacity is read from a process config, then from the pipeline
	// config, when the source port does not set a capacity.
	KeyEdgeCapacity = "_edge" + config.BlockSep + "capacity"
	// KeyAllowCycles disables cycle detection when set to "true".
	KeyAllowCycles = "_pipeline" + config.BlockSep + "allow_cycles"
)

// State is the lifecycle stage of a pipeline.
type State string

const (
	Unconfigured State = "unconfigured"
	SetUp        State = "setup"
	SetupFailed  State = "setup_failed"
)

// Pipeline owns processes, clusters and the edges between them.
//
// Mutation is not synchronized: a pipeline must be assembled from a single
// goroutine. After a successful SetupPipeline the topology is frozen and the
// read-only query methods may be called concurrently.
type Pipeline struct {
	id          string
	logger      *slog.Logger
	hooks       domain.LifecycleHooks
	allowCycles bool
	cfg         *config.Config

	processes    map[string]process.Process
	processOrder []string
	clusters     map[string]*process.Cluster
	clusterOrder []string
	// owner maps every cluster member (process or nested cluster) to the
	// cluster that directly contains it.
	owner map[string]string

	edges     map[domain.Address]*edge.Edge
	edgeOrder []domain.Address
	// inbound maps a connected input to its source output.
	inbound map[domain.Address]domain.Address

	state    State
	setupErr error
	order    []string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithHooks registers lifecycle callbacks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(p *Pipeline) {
		p.hooks = p.hooks.Merge(hooks)
	}
}

// WithCyclesAllowed skips cycle detection during setup.
func WithCyclesAllowed() Option {
	return func(p *Pipeline) {
		p.allowCycles = true
	}
}

// WithConfig sets the initial pipeline config snapshot.
func WithConfig(cfg *config.Config) Option {
	return func(p *Pipeline) {
		p.cfg = cfg.Clone()
	}
}

// WithID overrides the generated pipeline id.
func WithID(id string) Option {
	return func(p *Pipeline) {
		p.id = id
	}
}

// New returns an empty, unconfigured pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		id:     uuid.NewString(),
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
		cfg:    config.Empty(),
	}
	p.clear()

	for _, opt := range opts {
		opt(p)
	}

	p.logger = p.logger.With("pipeline", p.id)
	return p
}

func (p *Pipeline) clear() {
	p.processes = make(map[string]process.Process)
	p.processOrder = nil
	p.clusters = make(map[string]*process.Cluster)
	p.clusterOrder = nil
	p.owner = make(map[string]string)
	p.edges = make(map[domain.Address]*edge.Edge)
	p.edgeOrder = nil
	p.inbound = make(map[domain.Address]domain.Address)
	p.state = Unconfigured
	p.setupErr = nil
	p.order = nil
}

// ID returns the pipeline instance id.
func (p *Pipeline) ID() string { return p.id }

// State returns the lifecycle stage.
func (p *Pipeline) State() State { return p.state }

// IsSetup reports whether setup has been attempted since the last reset.
func (p *Pipeline) IsSetup() bool { return p.state != Unconfigured }

// SetupSuccessful reports whether the last setup attempt succeeded.
func (p *Pipeline) SetupSuccessful() bool { return p.state == SetUp }

// SetupError returns the error of a failed setup attempt, or nil.
func (p *Pipeline) SetupError() error { return p.setupErr }

// Config returns a copy of the pipeline config snapshot.
func (p *Pipeline) Config() *config.Config { return p.cfg.Clone() }

// CyclesAllowed reports whether setup skips cycle detection.
func (p *Pipeline) CyclesAllowed() bool {
	return p.allowCycles || p.cfg.ValueOr(KeyAllowCycles, "") == "true"
}

func (p *Pipeline) checkMutable() error {
	if p.state != Unconfigured {
		return domain.NewError(domain.ErrAlreadySetUp, "", "", "reset the pipeline before changing its graph")
	}
	return nil
}

func (p *Pipeline) base(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, PipelineID: p.id}
}

func (p *Pipeline) emitGraph(t domain.EventType, name string, cluster bool) {
	if p.hooks.OnGraphChange != nil {
		p.hooks.OnGraphChange(context.Background(), &domain.GraphEvent{EventBase: p.base(t), Name: name, Cluster: cluster})
	}
}

func (p *Pipeline) emitConnection(t domain.EventType, c domain.Connection) {
	if p.hooks.OnConnectionChange != nil {
		p.hooks.OnConnectionChange(context.Background(), &domain.ConnectionEvent{EventBase: p.base(t), Connection: c})
	}
}

func (p *Pipeline) emitLifecycle(e *domain.LifecycleEvent) {
	if p.hooks.OnLifecycle != nil {
		p.hooks.OnLifecycle(context.Background(), e)
	}
}
