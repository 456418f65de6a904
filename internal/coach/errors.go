package coach

import (
	"errors"
	"fmt"
)

// ValidationError is a bad or missing input. It is shown to the caller.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func invalidf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ExternalServiceError wraps a failure of the text-completion or nutrition
// service. Agents convert it to a fallback; it never leaves this package.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err should be shown to the caller as a bad
// request. Unsupported events count as validation failures.
func IsValidation(err error) bool {
	var ve *ValidationError
	var ue *UnsupportedEventError
	return errors.As(err, &ve) || errors.As(err, &ue)
}
