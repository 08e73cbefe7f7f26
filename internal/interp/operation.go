package interp

import (
	"github.com/roach88/hostbridge/internal/codec"
)

// OperatorKey is the discriminant member of every descriptor.
const OperatorKey = "operator"

// Operation is a decoded descriptor. The set of variants is closed.
type Operation interface {
	operator() string // Sealed
}

// Print writes Value followed by a newline to the interpreter's output.
type Print struct {
	Value string `json:"value"`
}

func (Print) operator() string { return "print" }

// Operations is the descriptor codec. Every variant is registered here.
var Operations = codec.NewUnion[Operation](OperatorKey).
	Variant("print", Print{})
