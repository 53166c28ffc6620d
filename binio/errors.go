package binio

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks. They are always wrapped in a
// *FormatError.
var (
	// ErrTruncated means the input ended in the middle of a value.
	ErrTruncated = errors.New("unexpected end of input")

	// ErrMalformedUTF means a string was not valid modified UTF-8.
	ErrMalformedUTF = errors.New("malformed modified UTF-8")

	// ErrMalformedVarint means a variable-length integer used more than nine
	// groups or ended with a zero-valued continuation group.
	ErrMalformedVarint = errors.New("malformed varint")
)

// FormatError reports a stream that cannot be decoded. It is fatal: every
// later byte depends on the position of the ones before it.
type FormatError struct {
	Offset int64  // absolute offset of the value that failed
	Reason string // optional detail
	Err    error  // sentinel or underlying cause
}

func (e *FormatError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%v at offset %d", e.Err, e.Offset)
	}
	return fmt.Sprintf("%v at offset %d: %s", e.Err, e.Offset, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// NewFormatError builds a *FormatError. Packages layered on top of binio use
// it so that the whole decoder reports stream corruption with one type.
func NewFormatError(offset int64, err error, reason string) *FormatError {
	return &FormatError{Offset: offset, Reason: reason, Err: err}
}
