package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/flume/internal/presentation/graph"
	"github.com/aretw0/flume/pkg/domain"
	"github.com/aretw0/flume/pkg/pipeline"
	"github.com/aretw0/flume/pkg/process"
	"github.com/aretw0/flume/pkg/registry"
)

// Pipeline is the read-only view of a pipeline the MCP server exposes.
// *pipeline.Pipeline satisfies it.
type Pipeline interface {
	graph.Source
	ID() string
	State() pipeline.State
	SetupError() error
	ProcessOrder() []string
	UpstreamForProcess(name string) ([]string, error)
	DownstreamForProcess(name string) ([]string, error)
	SenderForPort(proc, port string) (domain.Address, error)
	ReceiversForPort(proc, port string) ([]domain.Address, error)
}

// StatusResponse is the structured result of pipeline_status.
type StatusResponse struct {
	ID        string   `json:"id" jsonschema_description:"Pipeline identifier"`
	State     string   `json:"state" jsonschema_description:"unconfigured, setup or setup_failed"`
	Error     string   `json:"error,omitempty" jsonschema_description:"Why the last setup failed"`
	Processes []string `json:"processes" jsonschema_description:"Process names in insertion order"`
	Clusters  []string `json:"clusters" jsonschema_description:"Cluster names in insertion order"`
	Order     []string `json:"order,omitempty" jsonschema_description:"Execution order after a successful setup"`
}

// ProcessResponse is the structured result of describe_process.
type ProcessResponse struct {
	Name    string             `json:"name"`
	Type    string             `json:"type"`
	Cluster string             `json:"cluster,omitempty"`
	Inputs  []process.PortInfo `json:"inputs"`
	Outputs []process.PortInfo `json:"outputs"`
}

// Server exposes a pipeline as an MCP server.
type Server struct {
	pipeline  Pipeline
	registry  *registry.Registry
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithRegistry enables the list_types tool.
func WithRegistry(r *registry.Registry) Option {
	return func(s *Server) { s.registry = r }
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer creates a new MCP Server instance.
func NewServer(p Pipeline, version string, opts ...Option) *Server {
	s := &Server{
		pipeline:  p,
		mcpServer: server.NewMCPServer("flume-mcp", strings.TrimSpace(version)),
		logger:    slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("pipeline_status",
		mcp.WithDescription("Report the pipeline lifecycle state and its processes."),
		mcp.WithOutputSchema[StatusResponse](),
	), mcp.NewStructuredToolHandler(s.handleStatus))

	s.mcpServer.AddTool(mcp.NewTool("list_processes",
		mcp.WithDescription("List every process with its type."),
	), s.handleListProcesses)

	s.mcpServer.AddTool(mcp.NewTool("describe_process",
		mcp.WithDescription("Describe a process or cluster and its ports."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Process or cluster name")),
		mcp.WithOutputSchema[ProcessResponse](),
	), mcp.NewStructuredToolHandler(s.handleDescribe))

	s.mcpServer.AddTool(mcp.NewTool("upstream",
		mcp.WithDescription("List the processes feeding a process."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Process or cluster name")),
	), s.handleUpstream)

	s.mcpServer.AddTool(mcp.NewTool("downstream",
		mcp.WithDescription("List the processes fed by a process."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Process or cluster name")),
	), s.handleDownstream)

	s.mcpServer.AddTool(mcp.NewTool("port_connections",
		mcp.WithDescription("Show what an input port receives from, or what an output port sends to."),
		mcp.WithString("process", mcp.Required(), mcp.Description("Process name")),
		mcp.WithString("port", mcp.Required(), mcp.Description("Port name")),
		mcp.WithString("direction", mcp.Required(), mcp.Enum("input", "output")),
	), s.handlePortConnections)

	if s.registry != nil {
		s.mcpServer.AddTool(mcp.NewTool("list_types",
			mcp.WithDescription("List the registered process types."),
		), s.handleListTypes)
	}
}

func (s *Server) handleStatus(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StatusResponse, error) {
	resp := StatusResponse{
		ID:        s.pipeline.ID(),
		State:     string(s.pipeline.State()),
		Processes: s.pipeline.ProcessNames(),
		Clusters:  s.pipeline.ClusterNames(),
		Order:     s.pipeline.ProcessOrder(),
	}
	if err := s.pipeline.SetupError(); err != nil {
		resp.Error = err.Error()
	}
	return resp, nil
}

func (s *Server) handleListProcesses(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sb strings.Builder
	for _, name := range s.pipeline.ProcessNames() {
		proc, err := s.pipeline.ProcessByName(name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		fmt.Fprintf(&sb, "%s (%s)", name, proc.Type())
		if owner, ok := s.pipeline.ClusterOf(name); ok {
			fmt.Fprintf(&sb, " in %s", owner)
		}
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleDescribe(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ProcessResponse, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return ProcessResponse{}, err
	}
	proc, err := s.pipeline.ProcessByName(name)
	if err != nil {
		return ProcessResponse{}, err
	}
	resp := ProcessResponse{
		Name:    proc.Name(),
		Type:    proc.Type(),
		Inputs:  proc.InputPorts(),
		Outputs: proc.OutputPorts(),
	}
	if owner, ok := s.pipeline.ClusterOf(name); ok {
		resp.Cluster = owner
	}
	return resp, nil
}

func (s *Server) handleUpstream(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.neighbours(request, s.pipeline.UpstreamForProcess)
}

func (s *Server) handleDownstream(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.neighbours(request, s.pipeline.DownstreamForProcess)
}

func (s *Server) neighbours(request mcp.CallToolRequest, query func(string) ([]string, error)) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	names, err := query(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(names)
}

func (s *Server) handlePortConnections(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	proc, err := request.RequireString("process")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	port, err := request.RequireString("port")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	switch dir := request.GetString("direction", "input"); dir {
	case "input":
		addr, err := s.pipeline.SenderForPort(proc, port)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult([]domain.Address{addr})
	case "output":
		addrs, err := s.pipeline.ReceiversForPort(proc, port)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(addrs)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown direction %q", dir)), nil
	}
}

func (s *Server) handleListTypes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sb strings.Builder
	for _, typ := range s.registry.Types() {
		desc, _ := s.registry.Description(typ)
		fmt.Fprintf(&sb, "%s: %s\n", typ, desc)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("flume://graph", "Pipeline Graph",
		mcp.WithResourceDescription("Mermaid flowchart of the pipeline"),
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "flume://graph",
				MIMEType: "text/plain",
				Text:     graph.GenerateMermaid(s.pipeline, nil),
			},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource("flume://connections", "Pipeline Connections",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(s.pipeline.Connections())
		if err != nil {
			return nil, fmt.Errorf("failed to encode connections: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "flume://connections",
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
