package subtitle

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyText     = errors.New("subtitle text is empty")
	ErrMultilineText = errors.New("subtitle text must be a single line")
	ErrLocked        = errors.New("subtitle file is being edited elsewhere")
	ErrTimeOverflow  = errors.New("caption end time out of range")
)

// FormatError reports a malformed time code.
type FormatError struct {
	Value  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid time code %q: %s", e.Value, e.Reason)
}

// ParseError reports a block that does not follow the three line layout.
// Block is 1-based.
type ParseError struct {
	Path   string
	Block  int
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("parse %s: block %d: %s", e.Path, e.Block, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IOError reports a failed read or write of the backing file.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
