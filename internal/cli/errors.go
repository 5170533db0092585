package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/contractkit/internal/spec"
)

// ErrUsage is matched by errors caused by bad input rather than by a bug.
var ErrUsage = errors.New("cli usage error")

type usageError struct {
	msg   string
	cause error
}

func newUsageError(msg string) error {
	return usageError{msg: msg}
}

func usageErrorf(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

func (e usageError) Error() string {
	return e.msg
}

func (e usageError) Is(target error) bool {
	return target == ErrUsage
}

func (e usageError) Unwrap() error {
	return e.cause
}

// friendlyError turns structured loader and generator failures into usage
// errors that name the document location and pointer.
func friendlyError(err error) error {
	var se *spec.SpecError
	if errors.As(err, &se) {
		msg := se.Message
		if !strings.HasPrefix(msg, "spec: ") {
			msg = "spec: " + msg
		}
		if se.Location != "" {
			msg = fmt.Sprintf("%s\nLocation: %s", msg, se.Location)
		}
		if se.JSONPointer != "" {
			msg = fmt.Sprintf("%s\nPointer: %s", msg, se.JSONPointer)
		}
		if errors.Is(err, spec.ErrExternalRef) {
			msg += "\nOnly references within the same document are supported."
		}
		return usageError{msg: msg, cause: err}
	}
	var re *spec.RefError
	if errors.As(err, &re) {
		return usageError{
			msg:   fmt.Sprintf("generate: %v\nOnly references within the same document are supported.", err),
			cause: err,
		}
	}
	return err
}
