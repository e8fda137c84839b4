package vetapi

import (
	"errors"
	"fmt"
)

// Kind classifies why a platform call failed.
type Kind int

const (
	// KindNetwork covers everything where no usable response arrived:
	// connection refused, DNS failure, timeout.
	KindNetwork Kind = iota + 1
	// KindRejected is a 4xx response; the server usually supplies a message.
	KindRejected
	// KindFault is a 5xx response.
	KindFault
)

// Error is the failure of one platform API call.
type Error struct {
	Kind    Kind
	Status  int    // HTTP status, 0 for KindNetwork
	Code    string // machine-readable code from the server, may be empty
	Message string // server-supplied message, may be empty
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNetwork:
		return fmt.Sprintf("vetapi: network failure: %s", e.Message)
	case KindRejected:
		return fmt.Sprintf("vetapi: rejected (%d): %s", e.Status, e.Message)
	default:
		return fmt.Sprintf("vetapi: server fault (%d)", e.Status)
	}
}

const genericRetryMessage = "Something went wrong. Check your connection and try again."

// UserMessage maps a failed call to the text shown to the vet. Rejections
// surface the server's message verbatim when present; network failures and
// server faults get the generic retry-suggesting message.
func UserMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Kind == KindRejected && apiErr.Message != "" {
		return apiErr.Message
	}
	return genericRetryMessage
}

// CodeOf returns the server error code, or "" when err is not a rejection.
func CodeOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}
