package transform

import (
	"errors"
	"fmt"

	"medaugment/pkg/numeric"
)

// Sentinel errors matched with errors.Is. Errors returned by a Transform's
// ApplyTransform are passed through unchanged and match none of these.
var (
	// ErrValidation is matched by bad configuration and malformed inputs
	ErrValidation = errors.New("transform: validation failed")

	// ErrLookup is matched by unknown interpolation names
	ErrLookup = errors.New("transform: lookup failed")

	// ErrNumeric is matched by floating point faults raised while transforming
	ErrNumeric = numeric.ErrNumeric
)

// ValidationError reports a malformed configuration value or input
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// LookupError reports a name missing from a registry, with the accepted names
type LookupError struct {
	Name      string
	Supported []string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("interpolation %q is not among the supported values: %v", e.Name, e.Supported)
}

func (e *LookupError) Unwrap() error {
	return ErrLookup
}

// NumericError reports a floating point fault inside a transform.
// Fault is set when a checked operation trapped; otherwise Count holds how
// many non-finite voxels the transform introduced.
type NumericError struct {
	Transform string
	Fault     *numeric.Fault
	Count     int
}

func (e *NumericError) Error() string {
	if e.Fault != nil {
		return fmt.Sprintf("%s: %v", e.Transform, e.Fault)
	}
	return fmt.Sprintf("%s: %v: %d non-finite values produced", e.Transform, ErrNumeric, e.Count)
}

func (e *NumericError) Unwrap() error {
	if e.Fault != nil {
		return e.Fault
	}
	return ErrNumeric
}
