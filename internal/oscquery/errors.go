package oscquery

import "errors"

// Domain errors for the oscquery package.
var (
	// ErrNoHostInfo is returned when a peer's HOST_INFO is missing or
	// does not carry a usable OSC endpoint.
	ErrNoHostInfo = errors.New("oscquery: no usable host info")

	// ErrNodeNotFound is returned when a requested node does not exist.
	ErrNodeNotFound = errors.New("oscquery: node not found")

	// ErrUnexpectedStatus is returned for any other non-200 response.
	ErrUnexpectedStatus = errors.New("oscquery: unexpected http status")

	// ErrAlreadyRunning is returned when Run is called twice.
	ErrAlreadyRunning = errors.New("oscquery: service already running")
)
