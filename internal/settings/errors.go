package settings

import "errors"

var (
	// ErrInvalid is returned when a settings value fails validation.
	ErrInvalid = errors.New("settings: invalid")

	// ErrInvalidIP is returned when the configured local IP cannot be parsed.
	ErrInvalidIP = errors.New("settings: invalid ip address")
)
