package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/flume/internal/presentation/graph"
	"github.com/aretw0/flume/pkg/domain"
	"github.com/aretw0/flume/pkg/edge"
	"github.com/aretw0/flume/pkg/pipeline"
	"github.com/aretw0/flume/pkg/process"
)

// Pipeline is the read-only view of a pipeline the server exposes.
// *pipeline.Pipeline satisfies it.
type Pipeline interface {
	graph.Source
	ID() string
	State() pipeline.State
	SetupError() error
	ClusterByName(name string) (*process.Cluster, error)
	ProcessOrder() []string
	Edges() []*edge.Edge
	UpstreamForProcess(name string) ([]string, error)
	DownstreamForProcess(name string) ([]string, error)
	SenderForPort(proc, port string) (domain.Address, error)
	ReceiversForPort(proc, port string) ([]domain.Address, error)
}

// Server serves pipeline introspection over HTTP.
// The pipeline must not be mutated while the server is running.
type Server struct {
	Pipeline Pipeline
	Streams  *StreamManager

	version string
	metrics http.Handler
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = strings.TrimSpace(v) }
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithStreams shares an existing StreamManager, typically one whose Hooks
// were attached to the pipeline before it was built.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) { s.Streams = sm }
}

// NewServer creates a server for p.
func NewServer(p Pipeline, opts ...Option) *Server {
	s := &Server{
		Pipeline: p,
		version:  "dev",
		logger:   slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}
	return s
}

// NewHandler creates the HTTP handler for p.
func NewHandler(p Pipeline, opts ...Option) http.Handler {
	return NewServer(p, opts...).Routes()
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/status", s.GetStatus)
	r.Get("/processes", s.ListProcesses)
	r.Get("/processes/{name}", s.GetProcess)
	r.Get("/processes/{name}/upstream", s.GetUpstream)
	r.Get("/processes/{name}/downstream", s.GetDownstream)
	r.Get("/clusters", s.ListClusters)
	r.Get("/clusters/{name}", s.GetCluster)
	r.Get("/ports/{proc}/{port}/sender", s.GetSender)
	r.Get("/ports/{proc}/{port}/receivers", s.GetReceivers)
	r.Get("/edges", s.ListEdges)
	r.Get("/graph", s.GetGraph)
	r.Get("/events", s.SubscribeEvents)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// PortView is the JSON form of a declared port.
type PortView struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Flags       string `json:"flags,omitempty"`
	Description string `json:"description,omitempty"`
}

// ProcessView is the JSON form of a process.
type ProcessView struct {
	Name    string            `json:"name"`
	Type    string            `json:"type"`
	Cluster string            `json:"cluster,omitempty"`
	Inputs  []PortView        `json:"inputs"`
	Outputs []PortView        `json:"outputs"`
	Config  map[string]string `json:"config,omitempty"`
}

// ClusterView is the JSON form of a cluster.
type ClusterView struct {
	ProcessView
	Members     []string            `json:"members"`
	InputMap    map[string][]string `json:"input_map,omitempty"`
	OutputMap   map[string]string   `json:"output_map,omitempty"`
	Connections []string            `json:"connections,omitempty"`
}

// EdgeView is the JSON form of an edge.
type EdgeView struct {
	From     string   `json:"from"`
	To       []string `json:"to"`
	Type     string   `json:"type"`
	Capacity int      `json:"capacity"`
	Complete bool     `json:"complete"`
}

// StatusView is the JSON form of the pipeline state.
type StatusView struct {
	ID        string   `json:"id"`
	State     string   `json:"state"`
	Error     string   `json:"error,omitempty"`
	Processes int      `json:"processes"`
	Clusters  int      `json:"clusters"`
	Edges     int      `json:"edges"`
	Order     []string `json:"order,omitempty"`
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":      "flume-http",
		"version":  s.version,
		"pipeline": s.Pipeline.ID(),
	})
}

// GetStatus handles GET /status.
func (s *Server) GetStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusView{
		ID:        s.Pipeline.ID(),
		State:     string(s.Pipeline.State()),
		Processes: len(s.Pipeline.ProcessNames()),
		Clusters:  len(s.Pipeline.ClusterNames()),
		Edges:     len(s.Pipeline.Edges()),
		Order:     s.Pipeline.ProcessOrder(),
	}
	if err := s.Pipeline.SetupError(); err != nil {
		resp.Error = err.Error()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// ListProcesses handles GET /processes.
func (s *Server) ListProcesses(w http.ResponseWriter, r *http.Request) {
	views := make([]ProcessView, 0)
	for _, name := range s.Pipeline.ProcessNames() {
		proc, err := s.Pipeline.ProcessByName(name)
		if err != nil {
			s.writeError(w, err)
			return
		}
		views = append(views, s.processView(proc))
	}
	s.writeJSON(w, http.StatusOK, views)
}

// GetProcess handles GET /processes/{name}.
func (s *Server) GetProcess(w http.ResponseWriter, r *http.Request) {
	proc, err := s.Pipeline.ProcessByName(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.processView(proc))
}

// GetUpstream handles GET /processes/{name}/upstream.
func (s *Server) GetUpstream(w http.ResponseWriter, r *http.Request) {
	names, err := s.Pipeline.UpstreamForProcess(chi.URLParam(r, "name"))
	s.writeNames(w, names, err)
}

// GetDownstream handles GET /processes/{name}/downstream.
func (s *Server) GetDownstream(w http.ResponseWriter, r *http.Request) {
	names, err := s.Pipeline.DownstreamForProcess(chi.URLParam(r, "name"))
	s.writeNames(w, names, err)
}

// ListClusters handles GET /clusters.
func (s *Server) ListClusters(w http.ResponseWriter, r *http.Request) {
	views := make([]ClusterView, 0)
	for _, name := range s.Pipeline.ClusterNames() {
		c, err := s.Pipeline.ClusterByName(name)
		if err != nil {
			s.writeError(w, err)
			return
		}
		views = append(views, s.clusterView(c))
	}
	s.writeJSON(w, http.StatusOK, views)
}

// GetCluster handles GET /clusters/{name}.
func (s *Server) GetCluster(w http.ResponseWriter, r *http.Request) {
	c, err := s.Pipeline.ClusterByName(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.clusterView(c))
}

// GetSender handles GET /ports/{proc}/{port}/sender.
func (s *Server) GetSender(w http.ResponseWriter, r *http.Request) {
	addr, err := s.Pipeline.SenderForPort(chi.URLParam(r, "proc"), chi.URLParam(r, "port"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, addr)
}

// GetReceivers handles GET /ports/{proc}/{port}/receivers.
func (s *Server) GetReceivers(w http.ResponseWriter, r *http.Request) {
	addrs, err := s.Pipeline.ReceiversForPort(chi.URLParam(r, "proc"), chi.URLParam(r, "port"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if addrs == nil {
		addrs = []domain.Address{}
	}
	s.writeJSON(w, http.StatusOK, addrs)
}

// ListEdges handles GET /edges.
func (s *Server) ListEdges(w http.ResponseWriter, r *http.Request) {
	views := make([]EdgeView, 0)
	for _, e := range s.Pipeline.Edges() {
		v := EdgeView{
			From:     e.Source().String(),
			Type:     e.Type(),
			Capacity: e.Capacity(),
			Complete: e.IsComplete(),
		}
		for _, d := range e.Destinations() {
			v.To = append(v.To, d.String())
		}
		views = append(views, v)
	}
	s.writeJSON(w, http.StatusOK, views)
}

// GetGraph handles GET /graph. It returns a Mermaid flowchart.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := io.WriteString(w, graph.GenerateMermaid(s.Pipeline, nil)); err != nil {
		s.logger.Error("GetGraph write failed", "error", err)
	}
}

func (s *Server) processView(p process.Process) ProcessView {
	v := ProcessView{
		Name:    p.Name(),
		Type:    p.Type(),
		Inputs:  portViews(p.InputPorts()),
		Outputs: portViews(p.OutputPorts()),
	}
	if owner, ok := s.Pipeline.ClusterOf(p.Name()); ok {
		v.Cluster = owner
	}
	if cfg := p.Config(); cfg != nil && cfg.Len() > 0 {
		v.Config = cfg.ToMap()
	}
	return v
}

func (s *Server) clusterView(c *process.Cluster) ClusterView {
	v := ClusterView{ProcessView: s.processView(c)}
	for _, m := range c.Members() {
		v.Members = append(v.Members, m.Name())
	}
	for _, m := range c.InputMappings() {
		if v.InputMap == nil {
			v.InputMap = make(map[string][]string)
		}
		v.InputMap[m.Port] = append(v.InputMap[m.Port], m.Target.String())
	}
	for _, m := range c.OutputMappings() {
		if v.OutputMap == nil {
			v.OutputMap = make(map[string]string)
		}
		v.OutputMap[m.Port] = m.Target.String()
	}
	for _, conn := range c.Connections() {
		v.Connections = append(v.Connections, conn.String())
	}
	return v
}

func portViews(ports []process.PortInfo) []PortView {
	views := make([]PortView, 0, len(ports))
	for _, p := range ports {
		views = append(views, PortView{
			Name:        p.Name,
			Type:        p.Type,
			Flags:       p.Flags.String(),
			Description: p.Description,
		})
	}
	return views
}

func (s *Server) writeNames(w http.ResponseWriter, names []string, err error) {
	if err != nil {
		s.writeError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	s.writeJSON(w, http.StatusOK, names)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

// statusFor maps lookup failures to 404 and everything else to 500.
func statusFor(err error) int {
	switch kind := domain.KindOf(err); {
	case errors.Is(kind, domain.ErrNoSuchProcess),
		errors.Is(kind, domain.ErrNoSuchCluster),
		errors.Is(kind, domain.ErrNoSuchPort),
		errors.Is(kind, domain.ErrNoSuchConnection),
		errors.Is(kind, domain.ErrNotConnected):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
