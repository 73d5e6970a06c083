package transport

import (
	"errors"
	"fmt"
)

// Transport errors.
var (
	// ErrUnauthorized is returned when the appliance rejects the request
	// signature (HTTP 401 or 403). Usually the credentials are wrong or the
	// clock skew is too large for the Date header.
	ErrUnauthorized = errors.New("transport: unauthorized")

	// ErrMalformedResponse is returned when a response body cannot be
	// decrypted or its padding is invalid. This indicates protocol drift or
	// corruption, not a transient condition.
	ErrMalformedResponse = errors.New("transport: malformed response")

	// ErrMissingSignature is returned when a non-empty response lacks the
	// X-Signature header needed to derive the decryption IV.
	ErrMissingSignature = errors.New("transport: missing X-Signature header")

	// ErrInvalidHost is returned when the client is configured without a host.
	ErrInvalidHost = errors.New("transport: invalid host")
)

// StatusError is returned for non-2xx responses other than 401/403.
// A 404 means the addressed resource does not exist on the appliance and is
// used by higher layers as a leaf-availability signal.
type StatusError struct {
	// Code is the HTTP status code.
	Code int

	// Resource is the request path that produced the status.
	Resource string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("transport: %s returned status %d", e.Resource, e.Code)
}

// NetworkError wraps connection, DNS, and timeout failures. These are
// transient: they say nothing about whether the addressed resource exists.
type NetworkError struct {
	// Op describes the failed operation ("send", "read body").
	Op string

	// Err is the underlying error.
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether an error is a 404-class status from the
// appliance.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == 404
}

// IsTransient reports whether an error is a network-level failure that says
// nothing about the addressed resource.
func IsTransient(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
