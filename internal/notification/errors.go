package notification

import (
	"errors"
	"fmt"
)

// Kind classifies a failed send.
type Kind string

const (
	KindNotConfigured  Kind = "not_configured"
	KindUnauthorized   Kind = "unauthorized"
	KindDeliveryFailed Kind = "delivery_failed"
)

// apiKeyHint is appended to every unauthorized message.
const apiKeyHint = " (Check your SendGrid API key)"

// GatewayError is returned by Gateway.Send for every failure.
type GatewayError struct {
	Kind       Kind
	StatusCode int // provider status, zero when no response was received
	Message    string
	Err        error
}

func (e *GatewayError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Kind == KindUnauthorized {
		msg += apiKeyHint
	}
	return msg
}

func (e *GatewayError) Unwrap() error { return e.Err }

// KindOf returns the Kind of a *GatewayError in err's chain, or "" when there is none.
func KindOf(err error) Kind {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	return ""
}
