// Package unihookerr defines the error-kind taxonomy shared by every
// component: transport failures, remote 4xx/5xx responses, malformed
// inbound bodies, store failures, and inbound signature mismatches.
package unihookerr

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Wrap with fmt.Errorf("...: %w", KindX) and unwrap with
// errors.Is/errors.As.
var (
	// ErrTransport means an outbound request never received a response.
	ErrTransport = errors.New("transport error")
	// ErrParse means a well-formed HTTP request carried a malformed body.
	ErrParse = errors.New("parse error")
	// ErrStore means the embedded database failed an operation.
	ErrStore = errors.New("store error")
	// ErrSignatureMismatch means an inbound HMAC did not match.
	ErrSignatureMismatch = errors.New("signature mismatch")
)

// RemoteError wraps a non-2xx response from the engine or a provider
// surface, carrying the status code and response body for logging.
type RemoteError struct {
	Status int
	Body   []byte
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote error: status=%d body=%q", e.Status, truncate(e.Body, 256))
}

func (e *RemoteError) Is(target error) bool {
	_, ok := target.(*RemoteError)
	return ok
}

func NewRemoteError(status int, body []byte) *RemoteError {
	return &RemoteError{Status: status, Body: body}
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
