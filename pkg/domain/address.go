package domain

import (
	"fmt"
	"strings"
)

// Address names a port on a process (or on a cluster, before resolution).
type Address struct {
	Process string `json:"process" yaml:"process"`
	Port    string `json:"port" yaml:"port"`
}

func (a Address) String() string {
	return a.Process + "." + a.Port
}

// ParseAddress splits "process.port". The port is everything after the first dot.
func ParseAddress(s string) (Address, error) {
	proc, port, ok := strings.Cut(s, ".")
	if !ok || proc == "" || port == "" {
		return Address{}, fmt.Errorf("invalid port address %q: expected process.port", s)
	}
	return Address{Process: proc, Port: port}, nil
}

// Connection is a single source/destination pair.
type Connection struct {
	From Address `json:"from" yaml:"from"`
	To   Address `json:"to" yaml:"to"`
}

func (c Connection) String() string {
	return c.From.String() + " -> " + c.To.String()
}
