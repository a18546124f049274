package auth

import "errors"

// Domain errors for the auth package.
var (
	// ErrTokenInvalid is returned for a token that fails signature,
	// expiry or claim checks.
	ErrTokenInvalid = errors.New("auth: invalid token")

	// ErrNoSecret is returned when signing or verifying without a secret.
	ErrNoSecret = errors.New("auth: jwt secret not configured")

	// ErrInvalidRole is returned for an unknown role name.
	ErrInvalidRole = errors.New("auth: invalid role")

	// ErrForbidden is returned when a role lacks a permission.
	ErrForbidden = errors.New("auth: insufficient permissions")
)
