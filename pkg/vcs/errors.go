package vcs

import (
	"fmt"
	"strings"

	"github.com/oneconcern/mrdev/pkg/vcs/status"
)

// Error is the error returned by all working copy operations.
//
// It unwraps to one of the sentinel errors of the status package.
type Error struct {
	Backend string
	Package string
	Op      string
	Message string
	Output  string
	err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s of '%s' failed: %s", e.Backend, e.Op, e.Package, e.Message)
	if out := strings.TrimSpace(e.Output); out != "" {
		b.WriteString("\n")
		b.WriteString(out)
	}
	return b.String()
}

// Unwrap yields the sentinel error
func (e *Error) Unwrap() error {
	return e.err
}

// Lines of the error message
func (e *Error) Lines() []string {
	return strings.Split(e.Error(), "\n")
}

func (b *base) fail(sentinel error, op, output, format string, args ...interface{}) *Error {
	if sentinel == nil {
		sentinel = status.ErrBackendExecution
	}
	return &Error{
		Backend: b.kindName(),
		Package: b.src.Name,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
		Output:  output,
		err:     sentinel,
	}
}
