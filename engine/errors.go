package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors for expected failure modes
var (
	ErrDecode         = errors.New("sample bytes could not be decoded")
	ErrUnloadedPad    = errors.New("pad has no sample loaded")
	ErrInvalidTrim    = errors.New("trim window has non-positive duration")
	ErrOutOfRange     = errors.New("index out of range")
	ErrInvalidProject = errors.New("project failed validation")
	ErrClosed         = errors.New("engine is closed")
)

// DecodeError wraps a decoder failure for a specific pad. The pad's
// previous sample is left untouched.
type DecodeError struct {
	Pad   int
	Name  string
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("pad %d: decoding %q: %v", e.Pad, e.Name, e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return ErrDecode
}

func rangeErr(what string, got, limit int) error {
	return fmt.Errorf("%w: %s %d (want 0..%d)", ErrOutOfRange, what, got, limit-1)
}
