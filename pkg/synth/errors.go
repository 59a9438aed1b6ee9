package synth

import (
	"errors"
	"fmt"
)

var (
	ErrCompositionConflict = errors.New("composition conflict")
	ErrInvalidComposition  = errors.New("invalid composition")
	ErrEmptyEnum           = errors.New("empty enum")
)

// CompositionConflictError is returned when two allOf members declare
// incompatible shapes for the same field.
type CompositionConflictError struct {
	Schema string
	Field  string
}

func (e *CompositionConflictError) Error() string {
	return fmt.Sprintf("composition conflict in %s: field %q declared with incompatible shapes", e.Schema, e.Field)
}

func (e *CompositionConflictError) Unwrap() error {
	return ErrCompositionConflict
}

// InvalidCompositionError is returned when a non-object member appears in allOf.
type InvalidCompositionError struct {
	Schema string
	Reason string
}

func (e *InvalidCompositionError) Error() string {
	msg := fmt.Sprintf("invalid composition in %s", e.Schema)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *InvalidCompositionError) Unwrap() error {
	return ErrInvalidComposition
}

// EmptyEnumError is returned when an enum schema declares zero values.
type EmptyEnumError struct {
	Schema string
}

func (e *EmptyEnumError) Error() string {
	return fmt.Sprintf("enum %s declares no values", e.Schema)
}

func (e *EmptyEnumError) Unwrap() error {
	return ErrEmptyEnum
}
