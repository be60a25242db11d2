package directory

import (
	"errors"
	"fmt"
)

// ErrUnavailable is returned while no directory has been loaded, either
// because the load is still running or because it failed.
var ErrUnavailable = errors.New("directory: unavailable")

// ResourceLoadError reports a directory resource that could not be read or
// parsed as a whole.
type ResourceLoadError struct {
	Source string
	Err    error
}

func (e *ResourceLoadError) Error() string {
	return fmt.Sprintf("directory: load %s: %v", e.Source, e.Err)
}

func (e *ResourceLoadError) Unwrap() error {
	return e.Err
}

// MalformedRowError reports a data row whose field count disagrees with the
// header. The row is skipped.
type MalformedRowError struct {
	Line int
	Got  int
	Want int
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("directory: line %d has %d fields, want %d", e.Line, e.Got, e.Want)
}
