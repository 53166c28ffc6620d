package clyde

import (
	"errors"
	"fmt"
)

// Sentinel errors. Stream corruption is always reported wrapped in a
// *binio.FormatError carrying the byte offset.
var (
	ErrBadMagic           = errors.New("bad magic")
	ErrUnsupportedVersion = errors.New("unsupported version")
	ErrNegativeLength     = errors.New("negative length")
	ErrIDRange            = errors.New("id out of range")
	ErrTooLarge           = errors.New("segment too large")
	ErrBadClass           = errors.New("bad class descriptor")
	ErrBadFieldName       = errors.New("field name is not a string")

	// ErrNoFieldFrame is returned by field-buffer helpers called outside a
	// field hook.
	ErrNoFieldFrame = errors.New("clyde: no field segment is being read")
)

// UnsupportedStructureError reports a structure the decoder deliberately
// does not handle, such as multimaps or an encodable class with no hook.
type UnsupportedStructureError struct {
	Class  string
	Reason string
}

func (e *UnsupportedStructureError) Error() string {
	return fmt.Sprintf("clyde: %s: unsupported: %s", e.Class, e.Reason)
}
