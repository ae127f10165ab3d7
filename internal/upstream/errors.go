package upstream

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstreamUnavailable matches every failed call: transport errors, non-2xx statuses
	// and undecodable bodies.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrNotFound is returned when the upstream answers 404 for a single resource.
	ErrNotFound = errors.New("upstream resource not found")
)

// UnavailableError describes one failed upstream call.
type UnavailableError struct {
	Service    string
	Call       string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *UnavailableError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s unavailable: %s returned status %d", e.Service, e.Call, e.StatusCode)
	}
	return fmt.Sprintf("%s unavailable: %s: %v", e.Service, e.Call, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func (e *UnavailableError) Is(target error) bool { return target == ErrUpstreamUnavailable }
