package mesh

import (
	"errors"
	"fmt"
)

var (
	// ErrFileNotFound indicates the mesh path does not name a readable regular file.
	ErrFileNotFound = errors.New("mesh: file not found")

	// ErrFormat indicates the input is not a supported legacy VTK unstructured grid.
	ErrFormat = errors.New("mesh: unsupported or malformed file")

	// ErrNoScalars indicates the mesh carries no usable scalar array.
	ErrNoScalars = errors.New("mesh: no scalar fields")
)

// ParseError wraps a format error with its position in the input.
type ParseError struct {
	Line    int
	Section string
	Wrapped error
}

func (e *ParseError) Error() string {
	if e.Section == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Wrapped)
	}
	return fmt.Sprintf("line %d (%s): %v", e.Line, e.Section, e.Wrapped)
}

func (e *ParseError) Unwrap() error {
	return e.Wrapped
}
