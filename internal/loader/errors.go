package loader

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissing       = errors.New("source not found")
	ErrUnreadable    = errors.New("source unreadable")
	ErrMalformed     = errors.New("malformed data")
	ErrMissingColumn = errors.New("missing required column")
	ErrUnsupported   = errors.New("unsupported source")
)

// LoadError reports why a dataset could not be loaded. Kind is one of the
// sentinel errors above, so callers can use errors.Is on it.
type LoadError struct {
	Source string
	Kind   error
	Row    int
	Column string
	Err    error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "load %s: %v", e.Source, e.Kind)
	if e.Row > 0 {
		fmt.Fprintf(&b, " at row %d", e.Row)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " column %q", e.Column)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *LoadError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newLoadError(source string, kind error, err error) *LoadError {
	return &LoadError{Source: source, Kind: kind, Err: err}
}
