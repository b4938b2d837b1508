package sigcheck

import (
	"fmt"
)

import (
	goerrors "github.com/go-errors/errors"
)

// checkFailure is a terminal failure of the check. Message is the text shown
// to the monitoring system after the UNKNOWN prefix.
type checkFailure struct {
	Message string
	Cause   *goerrors.Error
}

func (f *checkFailure) Error() string {
	if f.Cause == nil {
		return f.Message
	}

	return fmt.Sprintf("%v: %v", f.Message, f.Cause.Err)
}

// Function that builds a checkFailure, capturing a stack trace for the cause
// if there is one.
func failure(cause error, format string, args ...interface{}) *checkFailure {
	f := &checkFailure{Message: fmt.Sprintf(format, args...)}

	if cause != nil {
		f.Cause = goerrors.Wrap(cause, 1)
	}

	return f
}

// versionFieldError reports a published version field that is not a plain
// unsigned integer.
type versionFieldError struct {
	Kind  SignatureKind
	Value string
}

func (e *versionFieldError) Error() string {
	return fmt.Sprintf("Invalid %v version field [%v]", e.Kind, e.Value)
}
