package memory

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned when memory operations are attempted
	// but no memory driver has been configured.
	ErrNotConfigured = errors.New("memory not configured")

	// ErrEmptyOwner is returned by session-scoped writers that require an
	// owner id.
	ErrEmptyOwner = errors.New("empty owner id")
)

// ParseErrorKind classifies why a reconciler response was rejected.
type ParseErrorKind int

const (
	// ParseInvalidJSON means the response was not valid JSON.
	ParseInvalidJSON ParseErrorKind = iota

	// ParseUnexpectedShape means the JSON was neither {"memory": [...]} nor
	// a bare array.
	ParseUnexpectedShape

	// ParseInvalidItem means an array element failed validation.
	ParseInvalidItem
)

func (k ParseErrorKind) String() string {
	switch k {
	case ParseInvalidJSON:
		return "invalid JSON"
	case ParseUnexpectedShape:
		return "unexpected shape"
	case ParseInvalidItem:
		return "invalid item"
	default:
		return fmt.Sprintf("ParseErrorKind(%d)", int(k))
	}
}

// ParseError reports a reconciler response that could not be turned into
// operations.
type ParseError struct {
	Kind ParseErrorKind

	// Index is the offending item for ParseInvalidItem, -1 otherwise.
	Index int

	Msg string
	Err error
}

func (e *ParseError) Error() string {
	s := "parsing operations: " + e.Kind.String()
	if e.Index >= 0 {
		s += fmt.Sprintf(" at index %d", e.Index)
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
