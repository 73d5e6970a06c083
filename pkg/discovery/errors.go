package discovery

import "errors"

var (
	ErrServiceNotFound = errors.New("discovery: service not found")
	ErrTimeout         = errors.New("discovery: operation timed out")
)
