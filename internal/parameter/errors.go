package parameter

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors for the parameter package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, parameter.ErrInvalidValue) {
//	    // value outside the legal domain
//	}
var (
	// ErrInvalidValue is matched by every *ValidationError.
	ErrInvalidValue = errors.New("parameter: invalid value")

	// ErrUnknownTypology is returned by New when an entry has no recognised typology.
	// Such entries are passthrough data, not parameters.
	ErrUnknownTypology = errors.New("parameter: unknown typology")

	// ErrMalformed is returned when a recognised typology is missing required attributes.
	ErrMalformed = errors.New("parameter: malformed attributes")

	// ErrNoCategorySource is returned when a Program has nothing to select from.
	ErrNoCategorySource = errors.New("parameter: program has no category source")
)

// ValidationError describes a candidate value rejected by a parameter.
type ValidationError struct {
	// Key is the parameter name.
	Key string

	// Value is the rejected candidate as supplied by the caller.
	Value any

	// Allowed lists the legal options (Enum, Program) or is empty for Range.
	Allowed []string

	// Reason is a human-readable description of the legal domain.
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Allowed) > 0 {
		return fmt.Sprintf("parameter %s: value %v rejected: allowed values [%s]",
			e.Key, e.Value, strings.Join(e.Allowed, ", "))
	}
	return fmt.Sprintf("parameter %s: value %v rejected: %s", e.Key, e.Value, e.Reason)
}

// Is reports whether target is ErrInvalidValue.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidValue
}
