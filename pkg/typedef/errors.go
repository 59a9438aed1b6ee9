package typedef

import (
	"errors"
	"fmt"
)

// ErrDependencyFailed marks a schema that was skipped because something
// in its reference closure failed.
var ErrDependencyFailed = errors.New("dependency failed")

// DependencyError records why a structurally sound schema was not emitted:
// a declaration cannot be produced when its truth depends on a broken one.
type DependencyError struct {
	Schema string
	On     string
	Err    error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s depends on failing schema %s: %v", e.Schema, e.On, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return ErrDependencyFailed
}
