package dispatch

import (
	"errors"
	"fmt"
)

// UserFacingError is the caught error kind: bad action types, missing
// required names, unresolved record targets. The transport boundary
// returns its message as {"error": message} instead of failing the
// request handler. Anything else a collaborator returns propagates
// uncaught.
type UserFacingError struct {
	Message string
}

// Error returns the boundary-visible message.
func (e *UserFacingError) Error() string {
	return e.Message
}

// UserErrorf creates a UserFacingError with a formatted message.
func UserErrorf(format string, args ...any) error {
	return &UserFacingError{Message: fmt.Sprintf(format, args...)}
}

// UserFacingMessage extracts the boundary-visible message when err is
// (or wraps) a UserFacingError.
func UserFacingMessage(err error) (string, bool) {
	var ufe *UserFacingError
	if errors.As(err, &ufe) {
		return ufe.Message, true
	}
	return "", false
}
