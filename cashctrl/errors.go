package cashctrl

import (
	"errors"
	"fmt"
)

// ErrUserCancelled is returned when an interactive confirmation is declined.
var ErrUserCancelled = errors.New("cancelled by user")

// TransportError covers network failures, timeouts and non-2xx responses.
// The client retries these up to maxAttempts before surfacing them.
type TransportError struct {
	Op       string
	Endpoint string
	Status   int
	Err      error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("cashctrl %s %s: http %d", e.Op, e.Endpoint, e.Status)
	}
	return fmt.Sprintf("cashctrl %s %s: %v", e.Op, e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteRejection is a well-formed response with success=false. It carries
// the server message and is never retried.
type RemoteRejection struct {
	Op       string
	Endpoint string
	Message  string
}

func (e *RemoteRejection) Error() string {
	return fmt.Sprintf("cashctrl %s %s rejected: %s", e.Op, e.Endpoint, e.Message)
}
