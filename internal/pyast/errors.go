package pyast

import (
	"errors"
	"fmt"
)

var (
	// ErrNotUTF8 is wrapped by ReadError when a file cannot be decoded.
	ErrNotUTF8 = errors.New("pyast: content is not valid UTF-8")
	// ErrSyntax is wrapped by ParseError when the tree contains error nodes.
	ErrSyntax = errors.New("pyast: syntax error")
)

// ReadError reports a file that could not be opened, read or decoded.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string { return fmt.Sprintf("read %s: %v", e.Path, e.Err) }
func (e *ReadError) Unwrap() error { return e.Err }

// ParseError reports a file whose syntax could not be structurally parsed.
// Line is 1-based and zero when the location is unknown.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s:%d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}
func (e *ParseError) Unwrap() error { return e.Err }
