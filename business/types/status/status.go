// Package status represents the lifecycle status of an organization.
package status

import "fmt"

// The set of statuses that can be used.
var (
	Active   = newStatus("active")
	Blocked  = newStatus("blocked")
	Inactive = newStatus("inactive")
)

// =============================================================================

// Set of known statuses.
var statuses = make(map[string]Status)

// Status represents the lifecycle status of an organization. Only members of
// an active organization may authenticate into tenant scoped operations.
type Status struct {
	value string
}

func newStatus(status string) Status {
	s := Status{status}
	statuses[status] = s
	return s
}

// String returns the name of the status.
func (s Status) String() string {
	return s.value
}

// Equal provides support for the go-cmp package and testing.
func (s Status) Equal(s2 Status) bool {
	return s.value == s2.value
}

// AllowsLogin reports whether members of an organization in this status may
// authenticate.
func (s Status) AllowsLogin() bool {
	return s.value == Active.value
}

// MarshalText provides support for logging and any marshal needs.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.value), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (s *Status) UnmarshalText(data []byte) error {
	v, err := Parse(string(data))
	if err != nil {
		return err
	}

	*s = v
	return nil
}

// =============================================================================

// Parse parses the string value and returns a status if one exists.
func Parse(value string) (Status, error) {
	s, exists := statuses[value]
	if !exists {
		return Status{}, fmt.Errorf("invalid status %q", value)
	}

	return s, nil
}

// MustParse parses the string value and returns a status if one exists. If
// an error occurs the function panics.
func MustParse(value string) Status {
	s, err := Parse(value)
	if err != nil {
		panic(err)
	}

	return s
}
