package rewrite

import "fmt"

// ParseError is returned when the input is not well-formed XML. Partial holds the
// output serialized before the failure point.
type ParseError struct {
	Line    int
	Offset  int64
	Err     error
	Partial string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed XML at line %d (offset %d): %v", e.Line, e.Offset, e.Err)
	}
	return fmt.Sprintf("malformed XML at offset %d: %v", e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
