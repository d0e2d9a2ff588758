package domain

import (
	"errors"
	"fmt"
)

// Common domain errors for the verification flow.
var (
	// ErrNodeNotFound indicates the current node id has no definition in
	// the flow table. This is a broken flow, not bad caller input, and is
	// the one error the controller surfaces instead of recovering.
	ErrNodeNotFound = errors.New("node not found in flow table")

	// ErrHandlerNotFound indicates a node names a handler kind the
	// controller does not implement.
	ErrHandlerNotFound = errors.New("handler not found for node")

	// ErrInvalidApplicant indicates the applicant record supplied at
	// session construction is incomplete.
	ErrInvalidApplicant = errors.New("invalid applicant record")

	// ErrInvalidConfiguration indicates controller or flow configuration
	// is invalid or incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// FlowError reports a configuration problem with a specific flow node.
// It wraps one of the sentinel errors above with node context.
type FlowError struct {
	// Node is the node involved in the failure.
	Node NodeID

	// Operation describes what the controller was doing when the flow
	// definition turned out to be broken.
	Operation string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for FlowError.
func (e *FlowError) Error() string {
	return fmt.Sprintf("flow error: operation=%s, node=%s, err=%v", e.Operation, e.Node, e.Err)
}

// Unwrap returns the underlying error.
func (e *FlowError) Unwrap() error { return e.Err }

// NewFlowError creates a FlowError with the given details.
func NewFlowError(node NodeID, operation string, err error) *FlowError {
	return &FlowError{Node: node, Operation: operation, Err: err}
}
