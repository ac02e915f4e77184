package dsl

import "github.com/aretw0/flume/pkg/blueprint"

// ClusterBuilder configures one cluster, its members and its port mappings.
// Definitions are resolved by index on every call since appends may move
// the underlying slices.
type ClusterBuilder struct {
	root   *Builder
	parent *ClusterBuilder
	idx    int
}

func (c *ClusterBuilder) def() *blueprint.ClusterDef {
	if c.parent == nil {
		return &c.root.bp.Clusters[c.idx]
	}
	return &c.parent.def().Clusters[c.idx]
}

// Describe sets the cluster description.
func (c *ClusterBuilder) Describe(text string) *ClusterBuilder {
	c.def().Description = text
	return c
}

// Set assigns a cluster-level config value.
func (c *ClusterBuilder) Set(key, value string) *ClusterBuilder {
	d := c.def()
	if d.Config == nil {
		d.Config = make(map[string]string)
	}
	d.Config[key] = value
	return c
}

// Process adds a member process.
func (c *ClusterBuilder) Process(name, typ string) *ProcessBuilder {
	c.root.claim(name)
	d := c.def()
	d.Processes = append(d.Processes, blueprint.ProcessDef{Name: name, Type: typ})
	return &ProcessBuilder{owner: c.root, cluster: c, idx: len(d.Processes) - 1}
}

// Cluster adds a nested member cluster.
func (c *ClusterBuilder) Cluster(name, typ string) *ClusterBuilder {
	c.root.claim(name)
	d := c.def()
	d.Clusters = append(d.Clusters, blueprint.ClusterDef{Name: name, Type: typ})
	return &ClusterBuilder{root: c.root, parent: c, idx: len(d.Clusters) - 1}
}

// Input exposes the member port to ("member.port") as the cluster input port.
func (c *ClusterBuilder) Input(port, to string) *ClusterBuilder {
	d := c.def()
	d.Inputs = append(d.Inputs, blueprint.PortMapping{Port: port, To: to})
	return c
}

// Output exposes the member port to ("member.port") as the cluster output port.
func (c *ClusterBuilder) Output(port, to string) *ClusterBuilder {
	d := c.def()
	d.Outputs = append(d.Outputs, blueprint.PortMapping{Port: port, To: to})
	return c
}

// Connect links two member ports inside the cluster.
func (c *ClusterBuilder) Connect(from, to string) *ClusterBuilder {
	d := c.def()
	d.Connections = append(d.Connections, blueprint.ConnectionDef{From: from, To: to})
	return c
}

// End returns to the enclosing cluster, or nil at the top level.
func (c *ClusterBuilder) End() *ClusterBuilder {
	return c.parent
}

// Pipeline returns to the blueprint builder.
func (c *ClusterBuilder) Pipeline() *Builder {
	return c.root
}
