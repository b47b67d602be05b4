// Package slug represents the URL safe unique handle of an organization.
package slug

import (
	"fmt"
	"regexp"
	"strings"
)

var rx = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

const maxLen = 63

// Slug represents a validated organization handle.
type Slug struct {
	value string
}

// String returns the value of the slug.
func (s Slug) String() string {
	return s.value
}

// Equal provides support for the go-cmp package and testing.
func (s Slug) Equal(s2 Slug) bool {
	return s.value == s2.value
}

// MarshalText provides support for logging and any marshal needs.
func (s Slug) MarshalText() ([]byte, error) {
	return []byte(s.value), nil
}

// Parse parses the string value and returns a slug if the value complies
// with the rules for a slug.
func Parse(value string) (Slug, error) {
	if len(value) == 0 || len(value) > maxLen {
		return Slug{}, fmt.Errorf("invalid slug %q: length must be between 1 and %d", value, maxLen)
	}

	if !rx.MatchString(value) {
		return Slug{}, fmt.Errorf("invalid slug %q: use lower case letters and digits separated by single hyphens", value)
	}

	return Slug{value}, nil
}

// MustParse parses the string value and returns a slug if the value
// complies with the rules for a slug. If an error occurs the function panics.
func MustParse(value string) Slug {
	s, err := Parse(value)
	if err != nil {
		panic(err)
	}

	return s
}

// Normalize lower cases the value and collapses anything that is not a
// letter or digit into single hyphens. The result still needs Parse.
func Normalize(value string) string {
	var b strings.Builder
	hyphen := false

	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			hyphen = false

		default:
			if b.Len() > 0 && !hyphen {
				b.WriteByte('-')
				hyphen = true
			}
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}
