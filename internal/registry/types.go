package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnknownPortal is returned when a name is not in the registry.
	ErrUnknownPortal = errors.New("unknown portal")
	// ErrUnknownTheme is returned when a portal has no such theme.
	ErrUnknownTheme = errors.New("unknown theme")
	// ErrNoRegistry is returned when neither the remote document nor a
	// cached copy is available.
	ErrNoRegistry = errors.New("no registry available")
)

// Registry is the parsed registry document.
type Registry struct {
	Portals map[string]Descriptor `json:"portals"`
}

// Descriptor describes one portal offered by the registry.
type Descriptor struct {
	Description string            `json:"description,omitempty"`
	Version     string            `json:"version,omitempty"`
	Themes      map[string]string `json:"themes"` // theme name → locator
}

// Names returns the portal names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.Portals))
	for name := range r.Portals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the descriptor for name. The error lists what is available.
func (r *Registry) Lookup(name string) (Descriptor, error) {
	d, ok := r.Portals[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w %q; available portals: %s", ErrUnknownPortal, name, listOrNone(r.Names()))
	}
	return d, nil
}

// ThemeNames returns the descriptor's theme names in sorted order.
func (d Descriptor) ThemeNames() []string {
	names := make([]string, 0, len(d.Themes))
	for name := range d.Themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Locator returns the raw snapshot locator for theme.
func (d Descriptor) Locator(theme string) (string, error) {
	loc, ok := d.Themes[theme]
	if !ok || strings.TrimSpace(loc) == "" {
		return "", fmt.Errorf("%w %q; available themes: %s", ErrUnknownTheme, theme, listOrNone(d.ThemeNames()))
	}
	return loc, nil
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}
