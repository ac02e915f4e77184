package edge

import "fmt"

// Kind classifies a Datum.
type Kind int

const (
	// KindData carries a value.
	KindData Kind = iota
	// KindEmpty is a placeholder that keeps lock-step receivers aligned.
	KindEmpty
	// KindComplete marks end of data on an edge.
	KindComplete
	// KindError carries a processing failure downstream.
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindEmpty:
		return "empty"
	case KindComplete:
		return "complete"
	case KindError:
		return "error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Datum is one item travelling on an edge.
type Datum struct {
	Kind  Kind
	Value any
	Err   error
}

// Data wraps a value.
func Data(v any) Datum { return Datum{Kind: KindData, Value: v} }

// Empty returns a placeholder datum.
func Empty() Datum { return Datum{Kind: KindEmpty} }

// Complete returns an end-of-data marker.
func Complete() Datum { return Datum{Kind: KindComplete} }

// Error wraps a failure.
func Error(err error) Datum { return Datum{Kind: KindError, Err: err} }
