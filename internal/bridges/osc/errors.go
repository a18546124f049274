package osc

import "errors"

// Domain errors for the OSC bridge.
var (
	// ErrInvalidLocalIP is returned by Start when the configured local IP
	// does not parse. Nothing is started.
	ErrInvalidLocalIP = errors.New("osc: invalid local ip")

	// ErrNotConnected is returned when sending without an active session.
	ErrNotConnected = errors.New("osc: no client connected")

	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("osc: bridge already started")

	// ErrDecodeFailed is returned when a datagram is not valid OSC.
	ErrDecodeFailed = errors.New("osc: decoding failed")
)
