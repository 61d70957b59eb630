package requests

import (
	"errors"
	"fmt"
)

// InvalidRequestError is returned when a request cannot be turned into a
// change plan against the current topology. The topology is never modified
// when a request is invalid and the caller can always fix the request.
type InvalidRequestError struct {
	Reason string
}

func (invalidRequestError *InvalidRequestError) Error() string {
	return fmt.Sprintf("Invalid request: %s", invalidRequestError.Reason)
}

func invalidRequest(format string, args ...interface{}) error {
	return &InvalidRequestError{Reason: fmt.Sprintf(format, args...)}
}

func IsInvalidRequest(err error) bool {
	var invalidRequestError *InvalidRequestError

	return errors.As(err, &invalidRequestError)
}
