package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/flume/pkg/domain"
	"github.com/aretw0/flume/pkg/process"
)

// Source is the read-only view of a pipeline the renderer needs.
// *pipeline.Pipeline satisfies it.
type Source interface {
	ProcessNames() []string
	ClusterNames() []string
	ProcessByName(name string) (process.Process, error)
	ClusterOf(name string) (string, bool)
	Connections() []domain.Connection
}

// Overlay contains run state to visualize on the graph.
type Overlay struct {
	Done   []string
	Failed string
}

// GenerateMermaid produces a Mermaid flowchart of a pipeline. Clusters become
// subgraphs (nested as declared) and every edge is labelled with the ports it
// joins. Node shapes follow the port layout:
// - Source (no inputs): ([Stadium])
// - Sink (no outputs): [/Parallelogram/]
// - Default: [Rectangle]
func GenerateMermaid(src Source, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	children := make(map[string][]string)
	var topProcs, topClusters []string
	for _, name := range src.ClusterNames() {
		if owner, ok := src.ClusterOf(name); ok {
			children[owner] = append(children[owner], name)
		} else {
			topClusters = append(topClusters, name)
		}
	}
	procs := make(map[string]bool)
	for _, name := range src.ProcessNames() {
		procs[name] = true
		if owner, ok := src.ClusterOf(name); ok {
			children[owner] = append(children[owner], name)
		} else {
			topProcs = append(topProcs, name)
		}
	}

	var writeCluster func(name, indent string)
	writeCluster = func(name, indent string) {
		fmt.Fprintf(&sb, "%ssubgraph %s[\"%s\"]\n", indent, sanitizeMermaidID(name), name)
		for _, child := range children[name] {
			if procs[child] {
				writeProcess(&sb, src, child, indent+"    ")
			} else {
				writeCluster(child, indent+"    ")
			}
		}
		fmt.Fprintf(&sb, "%send\n", indent)
	}

	for _, name := range topProcs {
		writeProcess(&sb, src, name, "    ")
	}
	for _, name := range topClusters {
		writeCluster(name, "    ")
	}

	for _, c := range src.Connections() {
		fmt.Fprintf(&sb, "    %s -- \"%s:%s\" --> %s\n",
			sanitizeMermaidID(c.From.Process), c.From.Port, c.To.Port, sanitizeMermaidID(c.To.Process))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds.
		sb.WriteString("    classDef done fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#b71c1c,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, name := range overlay.Done {
			id := sanitizeMermaidID(name)
			if id != "" && !seen[id] {
				seen[id] = true
				fmt.Fprintf(&sb, "    class %s done;\n", id)
			}
		}
		if overlay.Failed != "" {
			fmt.Fprintf(&sb, "    class %s failed;\n", sanitizeMermaidID(overlay.Failed))
		}
	}

	return sb.String()
}

func writeProcess(sb *strings.Builder, src Source, name, indent string) {
	proc, err := src.ProcessByName(name)
	if err != nil {
		return
	}
	opener, closer := "[", "]"
	switch {
	case len(proc.InputPorts()) == 0:
		opener, closer = "([", "])"
	case len(proc.OutputPorts()) == 0:
		opener, closer = "[/", "/]"
	}
	fmt.Fprintf(sb, "%s%s%s\"%s<br/><i>%s</i>\"%s\n", indent, sanitizeMermaidID(name), opener, name, proc.Type(), closer)
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
