package atomic

import (
	"errors"
	"fmt"
)

// ErrTechniqueNotFound is wrapped by ParseError when no definition file
// exists for a requested technique ID.
var ErrTechniqueNotFound = errors.New("technique definition not found")

// ParseError reports a technique definition file that is missing or
// malformed.
type ParseError struct {
	Technique string
	Path      string
	Err       error
}

func (e *ParseError) Error() string {
	switch {
	case e.Path == "":
		return fmt.Sprintf("loading technique %s: %v", e.Technique, e.Err)
	case e.Technique == "":
		return fmt.Sprintf("loading technique from %s: %v", e.Path, e.Err)
	default:
		return fmt.Sprintf("loading technique %s from %s: %v", e.Technique, e.Path, e.Err)
	}
}

func (e *ParseError) Unwrap() error { return e.Err }
