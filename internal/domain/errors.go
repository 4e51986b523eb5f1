package domain

import (
	"errors"
	"fmt"
)

// ErrSourceUnavailable marks a whole source as unreadable (missing file,
// unparseable payload, failed connection). The run continues with the
// remaining sources.
var ErrSourceUnavailable = errors.New("source unavailable")

// MappingError reports a single item that could not be mapped into a
// WeatherRecord because a required field path was absent or malformed.
// It skips that item only; the rest of the source continues.
type MappingError struct {
	Source SourceType
	Path   string
	Err    error
}

func (e *MappingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: field %q: %v", e.Source, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: missing required field %q", e.Source, e.Path)
}

func (e *MappingError) Unwrap() error { return e.Err }
