package shader

import (
	"errors"
	"fmt"
)

// ErrUnsupported is matched by every *UnsupportedError.
var ErrUnsupported = errors.New("shader: unsupported construct")

// UnsupportedError reports source the adapter cannot rewrite safely.
type UnsupportedError struct {
	Dialect   Dialect
	Line      int
	Construct string
	Reason    string
}

func (e *UnsupportedError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("shader: %s: line %d: %s: %s", e.Dialect, e.Line, e.Construct, e.Reason)
	}
	return fmt.Sprintf("shader: %s: %s: %s", e.Dialect, e.Construct, e.Reason)
}

// Is makes every UnsupportedError match ErrUnsupported.
func (e *UnsupportedError) Is(target error) bool { return target == ErrUnsupported }

func unsupported(d Dialect, line int, construct, reason string) error {
	return &UnsupportedError{Dialect: d, Line: line, Construct: construct, Reason: reason}
}
