package portal

import (
	"errors"
	"fmt"
	"regexp"
)

// DefaultTheme is used when no theme is requested.
const DefaultTheme = "default"

// ErrInvalidName is returned for names outside [a-z0-9-].
var ErrInvalidName = errors.New("invalid portal name")

var namePattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// ValidateName checks that name is non-empty and only uses lowercase
// letters, digits and hyphens.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w %q: use lowercase letters, digits and hyphens only", ErrInvalidName, name)
	}
	return nil
}
