package types

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for the failure modes of a product visit.
var (
	ErrElementNotFound     = errors.New("element not found")
	ErrInputNotFound       = errors.New("input not found")
	ErrResultNotFound      = errors.New("result not found")
	ErrNavigationTimeout   = errors.New("navigation timed out")
	ErrUnexpectedPageState = errors.New("unexpected page state")
	ErrUnknownRetailer     = errors.New("unknown retailer")
)

// StepError wraps a failure with the navigation step that produced it.
type StepError struct {
	Step string
	URL  string
	Err  error
}

func (e *StepError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s at %s: %v", e.Step, e.URL, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// ErrorKind maps an error to a stable label for logs and metrics.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrInputNotFound):
		return "input_not_found"
	case errors.Is(err, ErrResultNotFound):
		return "result_not_found"
	case errors.Is(err, ErrNavigationTimeout), errors.Is(err, context.DeadlineExceeded):
		return "navigation_timeout"
	case errors.Is(err, ErrElementNotFound):
		return "element_not_found"
	default:
		return "unexpected_page_state"
	}
}
