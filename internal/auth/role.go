package auth

import "fmt"

// Role is an API authorisation tier.
type Role string

const (
	// RoleViewer can read every API resource.
	RoleViewer Role = "viewer"

	// RoleOperator can additionally change settings.
	RoleOperator Role = "operator"
)

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleViewer, RoleOperator:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
}

// CanWrite reports whether the role may modify settings.
func (r Role) CanWrite() bool {
	return r == RoleOperator
}
