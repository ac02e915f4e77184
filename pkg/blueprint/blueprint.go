package blueprint

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/flume/pkg/domain"
)

// DefaultClusterType is the process type given to clusters that declare none.
const DefaultClusterType = "cluster"

// Blueprint is a complete pipeline definition.
type Blueprint struct {
	Name        string            `yaml:"name,omitempty" json:"name,omitempty"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	Config      map[string]string `yaml:"config,omitempty" json:"config,omitempty"`
	Processes   []ProcessDef      `yaml:"processes,omitempty" json:"processes,omitempty"`
	Clusters    []ClusterDef      `yaml:"clusters,omitempty" json:"clusters,omitempty"`
	Connections []ConnectionDef   `yaml:"connections,omitempty" json:"connections,omitempty"`
}

// ProcessDef declares one process instance.
type ProcessDef struct {
	Name   string            `yaml:"name" json:"name"`
	Type   string            `yaml:"type" json:"type"`
	Config map[string]string `yaml:"config,omitempty" json:"config,omitempty"`
}

// ClusterDef declares a cluster, its members and how its ports map onto them.
type ClusterDef struct {
	Name        string            `yaml:"name" json:"name"`
	Type        string            `yaml:"type,omitempty" json:"type,omitempty"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	Config      map[string]string `yaml:"config,omitempty" json:"config,omitempty"`
	Processes   []ProcessDef      `yaml:"processes,omitempty" json:"processes,omitempty"`
	Clusters    []ClusterDef      `yaml:"clusters,omitempty" json:"clusters,omitempty"`
	Inputs      []PortMapping     `yaml:"inputs,omitempty" json:"inputs,omitempty"`
	Outputs     []PortMapping     `yaml:"outputs,omitempty" json:"outputs,omitempty"`
	Connections []ConnectionDef   `yaml:"connections,omitempty" json:"connections,omitempty"`
}

// PortMapping exposes a member port ("proc.port") as a cluster port.
type PortMapping struct {
	Port string `yaml:"port" json:"port"`
	To   string `yaml:"to" json:"to"`
}

// ConnectionDef connects an output ("proc.port") to an input.
type ConnectionDef struct {
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to" json:"to"`
}

// ErrInvalid is wrapped by every structural problem found by Validate.
var ErrInvalid = errors.New("invalid blueprint")

// Parse decodes a YAML blueprint. Unknown fields are rejected.
func Parse(data []byte) (*Blueprint, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var bp Blueprint
	if err := dec.Decode(&bp); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalid)
		}
		return nil, fmt.Errorf("failed to parse blueprint: %w", err)
	}
	if err := bp.Validate(); err != nil {
		return nil, err
	}
	return &bp, nil
}

// Load reads and parses a blueprint file.
func Load(path string) (*Blueprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read blueprint: %w", err)
	}
	bp, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bp, nil
}

// Marshal encodes a blueprint as YAML.
func Marshal(bp *Blueprint) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(bp); err != nil {
		return nil, fmt.Errorf("failed to marshal blueprint: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Validate checks the structure of the document: names and types present,
// addresses well formed. Graph rules (duplicates, port types, cycles) are
// enforced by the pipeline when the blueprint is built.
func (bp *Blueprint) Validate() error {
	var errs []error
	for _, p := range bp.Processes {
		errs = append(errs, validateProcess(p))
	}
	for _, c := range bp.Clusters {
		errs = append(errs, validateCluster(c))
	}
	errs = append(errs, validateConnections(bp.Connections))
	return errors.Join(errs...)
}

func validateProcess(p ProcessDef) error {
	if p.Name == "" {
		return fmt.Errorf("%w: process with type %q has no name", ErrInvalid, p.Type)
	}
	if p.Type == "" {
		return fmt.Errorf("%w: process %s has no type", ErrInvalid, p.Name)
	}
	return nil
}

func validateCluster(c ClusterDef) error {
	if c.Name == "" {
		return fmt.Errorf("%w: cluster with no name", ErrInvalid)
	}
	var errs []error
	for _, p := range c.Processes {
		errs = append(errs, validateProcess(p))
	}
	for _, n := range c.Clusters {
		errs = append(errs, validateCluster(n))
	}
	for _, m := range slices.Concat(c.Inputs, c.Outputs) {
		if m.Port == "" {
			errs = append(errs, fmt.Errorf("%w: cluster %s maps an unnamed port", ErrInvalid, c.Name))
		}
		if _, err := domain.ParseAddress(m.To); err != nil {
			errs = append(errs, fmt.Errorf("%w: cluster %s port %s: %v", ErrInvalid, c.Name, m.Port, err))
		}
	}
	errs = append(errs, validateConnections(c.Connections))
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("cluster %s: %w", c.Name, err)
	}
	return nil
}

func validateConnections(conns []ConnectionDef) error {
	var errs []error
	for _, c := range conns {
		if _, err := domain.ParseAddress(c.From); err != nil {
			errs = append(errs, fmt.Errorf("%w: connection from: %v", ErrInvalid, err))
		}
		if _, err := domain.ParseAddress(c.To); err != nil {
			errs = append(errs, fmt.Errorf("%w: connection to: %v", ErrInvalid, err))
		}
	}
	return errors.Join(errs...)
}

// Clone returns a deep copy.
func (bp *Blueprint) Clone() *Blueprint {
	out := *bp
	out.Config = maps.Clone(bp.Config)
	out.Processes = cloneProcesses(bp.Processes)
	out.Clusters = cloneClusters(bp.Clusters)
	out.Connections = slices.Clone(bp.Connections)
	return &out
}

func cloneProcesses(in []ProcessDef) []ProcessDef {
	if in == nil {
		return nil
	}
	out := make([]ProcessDef, len(in))
	for i, p := range in {
		p.Config = maps.Clone(p.Config)
		out[i] = p
	}
	return out
}

func cloneClusters(in []ClusterDef) []ClusterDef {
	if in == nil {
		return nil
	}
	out := make([]ClusterDef, len(in))
	for i, c := range in {
		c.Config = maps.Clone(c.Config)
		c.Processes = cloneProcesses(c.Processes)
		c.Clusters = cloneClusters(c.Clusters)
		c.Inputs = slices.Clone(c.Inputs)
		c.Outputs = slices.Clone(c.Outputs)
		c.Connections = slices.Clone(c.Connections)
		out[i] = c
	}
	return out
}
