package registry

import (
	"strings"

	"github.com/portal-labs/portals/internal/branding"
)

// NormalizeLocator expands "owner/repo" shorthand to a full repository URL on
// the shorthand host. URLs and SSH locators are returned unchanged.
func NormalizeLocator(loc string) string {
	loc = strings.TrimSpace(loc)
	if isFullLocator(loc) {
		return loc
	}
	return branding.ShorthandHost() + "/" + strings.Trim(loc, "/")
}

func isFullLocator(loc string) bool {
	return strings.Contains(loc, "://") || strings.HasPrefix(loc, "git@")
}
