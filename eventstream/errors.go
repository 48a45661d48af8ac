package eventstream

import (
	"errors"
	"fmt"
)

// ErrIncompleteFrame reports that the buffer does not yet hold a whole
// frame. Append more data and retry; this is not corruption.
var ErrIncompleteFrame = errors.New("eventstream: incomplete frame")

// ErrPrematureEnd reports that the byte stream ended in the middle of a
// declared frame.
var ErrPrematureEnd = errors.New("eventstream: stream ended mid-frame")

// ChecksumError reports a CRC mismatch. The frame, and any bytes after
// it, cannot be trusted.
type ChecksumError struct {
	Expected uint32
	Computed uint32
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("eventstream: checksum mismatch: expected 0x%08x, computed 0x%08x", e.Expected, e.Computed)
}

// InvalidLengthError reports a declared or serialized length outside
// the protocol's bounds.
type InvalidLengthError struct {
	Field  string
	Length int
	Max    int
}

func (e *InvalidLengthError) Error() string {
	return fmt.Sprintf("eventstream: %s length %d exceeds the maximum of %d", e.Field, e.Length, e.Max)
}

// DuplicateHeaderError reports a header name appearing more than once
// in a single frame.
type DuplicateHeaderError struct {
	Name string
}

func (e *DuplicateHeaderError) Error() string {
	return fmt.Sprintf("eventstream: duplicate header %q", e.Name)
}
