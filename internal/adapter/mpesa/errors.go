package mpesa

import (
	"errors"
	"fmt"

	domainErrors "github.com/polkiloo/agristar/internal/domain/errors"
)

// GatewayError describes a failed gateway call. Ambiguous is set when the
// gateway may have acted on the request (transport failure, timeout, 5xx or
// unreadable success body); callers must not retry such calls blindly.
type GatewayError struct {
	Op          string
	StatusCode  int
	Code        string
	Description string
	Ambiguous   bool
	Err         error
}

func (e *GatewayError) Error() string {
	msg := fmt.Sprintf("mpesa %s failed", e.Op)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Code != "" {
		msg += ": " + e.Code
	}
	if e.Description != "" {
		msg += " " + e.Description
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the domain classification alongside the cause.
func (e *GatewayError) Unwrap() []error {
	kind := domainErrors.ErrPaymentUnavailable
	if e.Ambiguous {
		kind = domainErrors.ErrPaymentOutcomeUnknown
	}
	if e.Err == nil {
		return []error{kind}
	}
	return []error{kind, e.Err}
}

// IsAmbiguous reports whether err leaves the gateway outcome unknown.
func IsAmbiguous(err error) bool {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Ambiguous
	}
	return false
}
