// Package password represents a clear text password supplied by a caller.
package password

import "errors"

// Password holds a clear text password. It never renders its value.
type Password struct {
	value string
}

// Parse rejects empty passwords.
func Parse(value string) (Password, error) {
	if value == "" {
		return Password{}, errors.New("password must not be empty")
	}

	return Password{value}, nil
}

// MustParse parses the value and panics on error.
func MustParse(value string) Password {
	p, err := Parse(value)
	if err != nil {
		panic(err)
	}

	return p
}

// Reveal returns the clear text value for hashing or forwarding to the
// identity store.
func (p Password) Reveal() string {
	return p.value
}

// IsZero reports whether the password was never set.
func (p Password) IsZero() bool {
	return p.value == ""
}

// String masks the value.
func (p Password) String() string {
	return "[MASKED]"
}

// MarshalText masks the value.
func (p Password) MarshalText() ([]byte, error) {
	return []byte("[MASKED]"), nil
}
