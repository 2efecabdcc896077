package dataflow

import (
	"errors"
	"fmt"
)

// ErrContractViolation is the sentinel every *ContractViolation unwraps to.
var ErrContractViolation = errors.New("dataflow contract violation")

// ViolationKind classifies a contract violation.
type ViolationKind int

const (
	// KindScope: an assumption map was used for an edge not incident on the
	// node being interpreted.
	KindScope ViolationKind = iota + 1
	// KindSetAndReplace: a flow function wrote assumptions and also returned a
	// transformation.
	KindSetAndReplace
	// KindActualizeWrite: a flow function changed an assumption during
	// actualize.
	KindActualizeWrite
	// KindBoundaryMismatch: a replacement graph's boundary does not match the
	// replaced node's edges.
	KindBoundaryMismatch
	// KindNilTransformer: a transformation carried no transformer.
	KindNilTransformer
	// KindNoConvergence: the step limit was exceeded.
	KindNoConvergence
)

func (k ViolationKind) String() string {
	switch k {
	case KindScope:
		return "edge out of scope"
	case KindSetAndReplace:
		return "assumption written alongside a transformation"
	case KindActualizeWrite:
		return "assumption changed during actualize"
	case KindBoundaryMismatch:
		return "replacement boundary mismatch"
	case KindNilTransformer:
		return "nil transformer"
	case KindNoConvergence:
		return "no convergence"
	default:
		return "unknown"
	}
}

// ContractViolation is the panic value raised when an analysis breaks one of
// the solver's contracts.
type ContractViolation struct {
	Kind   ViolationKind
	Detail string
}

func (v *ContractViolation) Error() string {
	return fmt.Sprintf("dataflow: %s: %s", v.Kind, v.Detail)
}

func (v *ContractViolation) Unwrap() error {
	return ErrContractViolation
}

func violate(kind ViolationKind, format string, args ...any) {
	panic(&ContractViolation{Kind: kind, Detail: fmt.Sprintf(format, args...)})
}
