// Package role represents the role type in the system.
package role

import "fmt"

// The set of roles that can be used.
var (
	SuperAdmin   = newRole("super_admin")
	Admin        = newRole("admin")
	User         = newRole("user")
	Professional = newRole("professional")
)

// =============================================================================

// Set of known roles.
var roles = make(map[string]Role)

// Role represents a role in the system.
type Role struct {
	value string
}

func newRole(role string) Role {
	r := Role{role}
	roles[role] = r
	return r
}

// String returns the name of the role.
func (r Role) String() string {
	return r.value
}

// Equal provides support for the go-cmp package and testing.
func (r Role) Equal(r2 Role) bool {
	return r.value == r2.value
}

// IsZero reports whether the role was never set.
func (r Role) IsZero() bool {
	return r.value == ""
}

// TenantScoped reports whether a membership with this role must reference an
// organization. Only the platform super administrator lives outside one.
func (r Role) TenantScoped() bool {
	return r.value != SuperAdmin.value
}

// MarshalText provides support for logging and any marshal needs.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.value), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (r *Role) UnmarshalText(data []byte) error {
	v, err := Parse(string(data))
	if err != nil {
		return err
	}

	*r = v
	return nil
}

// =============================================================================

// All returns every known role, most privileged first.
func All() []Role {
	return []Role{SuperAdmin, Admin, User, Professional}
}

// Parse parses the string value and returns a role if one exists.
func Parse(value string) (Role, error) {
	role, exists := roles[value]
	if !exists {
		return Role{}, fmt.Errorf("invalid role %q", value)
	}

	return role, nil
}

// MustParse parses the string value and returns a role if one exists. If
// an error occurs the function panics.
func MustParse(value string) Role {
	role, err := Parse(value)
	if err != nil {
		panic(err)
	}

	return role
}
