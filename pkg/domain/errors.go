package domain

import (
	"errors"
	"strings"
)

// Error kinds. Every *Error carries exactly one of these as its Kind, so
// callers branch with errors.Is(err, domain.ErrNoSuchPort) and recover the
// offending names with errors.As.
var (
	ErrDuplicateName             = errors.New("duplicate name")
	ErrNoSuchProcess             = errors.New("no such process")
	ErrNoSuchCluster             = errors.New("no such cluster")
	ErrNoSuchPort                = errors.New("no such port")
	ErrNoSuchConnection          = errors.New("no such connection")
	ErrWrongDirection            = errors.New("wrong port direction")
	ErrPortTypeMismatch          = errors.New("port type mismatch")
	ErrFlagMismatch              = errors.New("port flag mismatch")
	ErrInputAlreadyConnected     = errors.New("input already connected")
	ErrNotConnected              = errors.New("port not connected")
	ErrClusterMember             = errors.New("process belongs to a cluster")
	ErrUnknownProcess            = errors.New("unknown process in cluster mapping")
	ErrUnknownProcessType        = errors.New("unknown process type")
	ErrMissingRequiredConnection = errors.New("missing required connection")
	ErrCyclicGraph               = errors.New("cyclic graph")
	ErrAlreadySetUp              = errors.New("pipeline already set up")
	ErrNotSetUp                  = errors.New("pipeline not set up")
	ErrInvalidConfiguration      = errors.New("invalid configuration")
)

// ErrBlueprintNotFound is returned when a blueprint name cannot be found in a store.
var ErrBlueprintNotFound = errors.New("blueprint not found")

// Error describes a rejected graph operation.
type Error struct {
	Kind    error  // One of the Err* sentinels above
	Process string // Offending process or cluster, if any
	Port    string // Offending port, if any
	Reason  string // Free-form detail
	Err     error  // Underlying cause, if any
}

// NewError builds an *Error of the given kind.
func NewError(kind error, process, port, reason string) *Error {
	return &Error{Kind: kind, Process: process, Port: port, Reason: reason}
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.Error())
	switch {
	case e.Process != "" && e.Port != "":
		sb.WriteString(": ")
		sb.WriteString(Address{Process: e.Process, Port: e.Port}.String())
	case e.Process != "":
		sb.WriteString(": ")
		sb.WriteString(e.Process)
	}
	if e.Reason != "" {
		sb.WriteString(" (")
		sb.WriteString(e.Reason)
		sb.WriteString(")")
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf returns the kind sentinel carried by err, or nil.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return nil
}
