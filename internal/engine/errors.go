package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ResolutionError represents an unrecoverable failure of one top-level
// scope resolution.
//
// Resolution errors include:
//   - Structural: a malformed tree or a reference to an unregistered scope
//   - Depth exceeded: recursion surpassed the configured maximum
//   - Cycle detected: the active path re-entered a node or scope
//
// All three abort the whole resolution - a scope never partially
// resolves. Per-entity data anomalies (missing fields, malformed
// component values) are NOT errors; resolvers skip the affected entity
// and continue.
type ResolutionError struct {
	// Code identifies the error category.
	Code ResolutionErrorCode

	// Message is a human-readable description.
	Message string

	// ScopeID identifies the scope involved, when one is known.
	ScopeID string

	// Chain is the active resolution path (cycle keys, outermost first)
	// at the point of failure, for diagnosability.
	Chain []string
}

// ResolutionErrorCode categorizes resolution errors.
type ResolutionErrorCode string

const (
	// ErrCodeStructural indicates a content/configuration defect:
	// a node the dispatcher cannot match, or a dangling scope reference.
	ErrCodeStructural ResolutionErrorCode = "STRUCTURAL"

	// ErrCodeDepthExceeded indicates recursion surpassed the maximum
	// depth. Either a cycle the detector could not key, or a
	// pathologically deep legitimate chain.
	ErrCodeDepthExceeded ResolutionErrorCode = "DEPTH_EXCEEDED"

	// ErrCodeCycleDetected indicates the active path re-entered a node
	// or scope already being resolved.
	ErrCodeCycleDetected ResolutionErrorCode = "CYCLE_DETECTED"
)

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)
	if e.ScopeID != "" {
		fmt.Fprintf(&b, " (scope=%s)", e.ScopeID)
	}
	if len(e.Chain) > 0 {
		fmt.Fprintf(&b, " [path: %s]", strings.Join(e.Chain, " -> "))
	}
	return b.String()
}

// IsStructuralError returns true if the error is a structural resolution
// error. Uses errors.As to handle wrapped errors.
func IsStructuralError(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re) && re.Code == ErrCodeStructural
}

// IsDepthError returns true if the error is a depth-exceeded error.
func IsDepthError(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re) && re.Code == ErrCodeDepthExceeded
}

// IsCycleError returns true if the error is a cycle detection error.
func IsCycleError(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re) && re.Code == ErrCodeCycleDetected
}

// NewStructuralError creates a ResolutionError for a content defect.
func NewStructuralError(format string, args ...any) *ResolutionError {
	return &ResolutionError{
		Code:    ErrCodeStructural,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewUnknownScopeError creates a structural error for a reference to a
// scope the registry does not contain.
func NewUnknownScopeError(scopeID string, chain []string) *ResolutionError {
	return &ResolutionError{
		Code:    ErrCodeStructural,
		Message: "reference to unregistered scope",
		ScopeID: scopeID,
		Chain:   chain,
	}
}

// NewDepthError creates a ResolutionError for exceeding the depth bound.
func NewDepthError(depth, maxDepth int, chain []string) *ResolutionError {
	return &ResolutionError{
		Code:    ErrCodeDepthExceeded,
		Message: fmt.Sprintf("resolution depth %d exceeds maximum %d", depth, maxDepth),
		Chain:   chain,
	}
}

// NewCycleError creates a ResolutionError for a re-entered cycle key.
// The offending key is appended to the chain so the full loop is visible.
func NewCycleError(key string, chain []string) *ResolutionError {
	return &ResolutionError{
		Code:    ErrCodeCycleDetected,
		Message: fmt.Sprintf("cycle detected at %s", key),
		Chain:   append(append([]string{}, chain...), key),
	}
}
