package process

import "strings"

// Direction tells inputs from outputs.
type Direction int

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// TypeAny is the wildcard data type tag. It is compatible with every other tag.
const TypeAny = "_any"

// PortFlags is a set of port behaviours.
type PortFlags uint8

const (
	// Required inputs must be connected before setup succeeds.
	Required PortFlags = 1 << iota
	// Const outputs hand out data that receivers must not modify.
	Const
	// Mutable inputs modify the data they receive.
	Mutable
	// NoDep marks an input as a back-edge; it is ignored by cycle detection.
	NoDep
)

var flagNames = []struct {
	flag PortFlags
	name string
}{
	{Required, "_required"},
	{Const, "_const"},
	{Mutable, "_mutable"},
	{NoDep, "_nodep"},
}

// Has reports whether every flag in g is set.
func (f PortFlags) Has(g PortFlags) bool {
	return f&g == g
}

func (f PortFlags) String() string {
	var names []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			names = append(names, fn.name)
		}
	}
	return strings.Join(names, ",")
}

// ParseFlag returns the flag named s ("_required", "_const", ...).
func ParseFlag(s string) (PortFlags, bool) {
	for _, fn := range flagNames {
		if fn.name == s {
			return fn.flag, true
		}
	}
	return 0, false
}

// PortInfo describes one declared port.
type PortInfo struct {
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Flags       PortFlags `json:"flags"`
	Description string    `json:"description,omitempty"`
	// Capacity overrides the queue depth of edges leaving this port. Zero means unset.
	Capacity int `json:"capacity,omitempty"`
}

// Compatible reports whether data of type a may flow into a port of type b.
func Compatible(a, b string) bool {
	return a == TypeAny || b == TypeAny || a == b
}

func findPort(ports []PortInfo, name string) (PortInfo, bool) {
	for _, p := range ports {
		if p.Name == name {
			return p, true
		}
	}
	return PortInfo{}, false
}

// InputPort looks up an input descriptor by name.
func InputPort(p Process, name string) (PortInfo, bool) {
	return findPort(p.InputPorts(), name)
}

// OutputPort looks up an output descriptor by name.
func OutputPort(p Process, name string) (PortInfo, bool) {
	return findPort(p.OutputPorts(), name)
}

// Port looks up a descriptor in the given direction.
func Port(p Process, dir Direction, name string) (PortInfo, bool) {
	if dir == Output {
		return OutputPort(p, name)
	}
	return InputPort(p, name)
}
