package document

import (
	"errors"
	"fmt"
)

// Kind classifies an ingest failure.
type Kind int

const (
	KindIO Kind = iota + 1
	KindParse
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindParse:
		return "parse"
	case KindInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Sentinels matched by errors.Is against an *Error of the same kind.
var (
	ErrIO             = errors.New("file unreadable")
	ErrParse          = errors.New("invalid JSON")
	ErrInvalidGeoJSON = errors.New("Invalid GeoJSON: must be FeatureCollection or Feature")
)

// Error is a failure to ingest one file.
type Error struct {
	Kind Kind
	File string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("Error in file %s: %v", e.File, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for this error's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrIO:
		return e.Kind == KindIO
	case ErrParse:
		return e.Kind == KindParse
	case ErrInvalidGeoJSON:
		return e.Kind == KindInvalid
	}
	return false
}
