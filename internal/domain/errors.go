package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMissingIdentifier = errors.New("missing identifier")
	ErrInvalidUPCFormat  = errors.New("invalid upc format")
	ErrJoinAmbiguity     = errors.New("join ambiguity")
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrMalformedQuantity = errors.New("malformed quantity")

	// ErrNotFound is returned by read paths when nothing has been published.
	ErrNotFound = errors.New("not found")
)

// RowError reports a single rejected input row. Row is the 1-based data row
// number, not counting the header.
type RowError struct {
	Source string
	Row    int
	Field  string
	Err    error
}

func (e *RowError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s row %d (%s): %v", e.Source, e.Row, e.Field, e.Err)
	}
	return fmt.Sprintf("%s row %d: %v", e.Source, e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
