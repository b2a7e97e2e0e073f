package batch

import (
	"errors"
	"fmt"
)

var (
	// ErrDirectoryNotFound is returned when the input directory does not exist.
	ErrDirectoryNotFound = errors.New("directory not found")
	// ErrEmptyDirectory is returned when no supported image was found.
	ErrEmptyDirectory = errors.New("no supported images in directory")
	// ErrWorkspace wraps failures creating the session workspace.
	ErrWorkspace = errors.New("workspace error")
	// ErrReport wraps failures writing the split report.
	ErrReport = errors.New("split report error")
)

// Error carries the path a batch failure refers to.
type Error struct {
	Kind error
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v: %s", e.Kind, e.Path)
	}
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
