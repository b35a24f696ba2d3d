package domain

import "fmt"

// Role is a user's authorization level. The set is closed.
type Role string

const (
	RoleLearner     Role = "learner"
	RoleContributor Role = "contributor"
	RoleAdmin       Role = "admin"
)

// DefaultRole is assigned when registration does not name one.
const DefaultRole = RoleLearner

// ValidRoles returns every role in ascending order of authority.
func ValidRoles() []Role {
	return []Role{RoleLearner, RoleContributor, RoleAdmin}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleLearner, RoleContributor, RoleAdmin:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

// ParseRole converts s into a Role, rejecting unknown values. Matching is
// exact: "Admin" is not "admin".
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}
