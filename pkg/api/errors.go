package api

import "errors"

var (
	ErrNoTransport        = errors.New("api: no transport configured")
	ErrRegistrationFailed = errors.New("api: registration failed")
	ErrNoDevices          = errors.New("api: no devices reported")
	ErrMalformedDocument  = errors.New("api: malformed response document")
)
