package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/flume/pkg/domain"
	"github.com/aretw0/flume/pkg/process"
)

// Described is the view of a pipeline DescribeMarkdown needs.
// *pipeline.Pipeline satisfies it.
type Described interface {
	ID() string
	ProcessNames() []string
	ClusterNames() []string
	ProcessByName(name string) (process.Process, error)
	ClusterByName(name string) (*process.Cluster, error)
	Connections() []domain.Connection
	ProcessOrder() []string
}

// DescribeMarkdown renders a pipeline summary as markdown: processes with
// their ports, clusters with their mappings and the connection list.
func DescribeMarkdown(title string, p Described) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", title)
	fmt.Fprintf(&sb, "Pipeline `%s`: %d processes, %d clusters, %d connections.\n\n",
		p.ID(), len(p.ProcessNames()), len(p.ClusterNames()), len(p.Connections()))

	sb.WriteString("## Processes\n\n")
	sb.WriteString("| Process | Type | Inputs | Outputs |\n|---|---|---|---|\n")
	for _, name := range p.ProcessNames() {
		proc, err := p.ProcessByName(name)
		if err != nil {
			continue
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n", name, proc.Type(),
			portList(proc.InputPorts()), portList(proc.OutputPorts()))
	}

	if names := p.ClusterNames(); len(names) > 0 {
		sb.WriteString("\n## Clusters\n\n")
		for _, name := range names {
			c, err := p.ClusterByName(name)
			if err != nil {
				continue
			}
			fmt.Fprintf(&sb, "### %s (%s)\n\n", name, c.Type())
			for _, m := range c.InputMappings() {
				fmt.Fprintf(&sb, "- input `%s` → `%s`\n", m.Port, m.Target)
			}
			for _, m := range c.OutputMappings() {
				fmt.Fprintf(&sb, "- output `%s` ← `%s`\n", m.Port, m.Target)
			}
			sb.WriteString("\n")
		}
	}

	if conns := p.Connections(); len(conns) > 0 {
		sb.WriteString("\n## Connections\n\n")
		for _, c := range conns {
			fmt.Fprintf(&sb, "- `%s` → `%s`\n", c.From, c.To)
		}
	}

	if order := p.ProcessOrder(); len(order) > 0 {
		sb.WriteString("\n## Execution order\n\n")
		for i, name := range order {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, name)
		}
	}
	return sb.String()
}

func portList(ports []process.PortInfo) string {
	if len(ports) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(ports))
	for _, port := range ports {
		s := fmt.Sprintf("`%s` (%s)", port.Name, port.Type)
		if port.Flags != 0 {
			s += " " + port.Flags.String()
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}
