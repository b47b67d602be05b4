// Package name represents a display name in the system.
package name

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxRunes = 120

// Name represents a display name of an organization or a person.
type Name struct {
	value string
}

// String returns the value of the name.
func (n Name) String() string {
	return n.value
}

// Equal provides support for the go-cmp package and testing.
func (n Name) Equal(n2 Name) bool {
	return n.value == n2.value
}

// MarshalText provides support for logging and any marshal needs.
func (n Name) MarshalText() ([]byte, error) {
	return []byte(n.value), nil
}

// Parse trims the value and checks it is a usable name.
func Parse(value string) (Name, error) {
	value = strings.TrimSpace(value)

	count := utf8.RuneCountInString(value)
	if count == 0 || count > maxRunes {
		return Name{}, fmt.Errorf("invalid name %q: length must be between 1 and %d", value, maxRunes)
	}

	for _, r := range value {
		if unicode.IsControl(r) {
			return Name{}, fmt.Errorf("invalid name %q: control characters are not allowed", value)
		}
	}

	return Name{value}, nil
}

// MustParse parses the string value and returns a name if the value
// complies with the rules for a name. If an error occurs the function panics.
func MustParse(value string) Name {
	n, err := Parse(value)
	if err != nil {
		panic(err)
	}

	return n
}
