package workspace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/portal-labs/portals/internal/fsutil"
	"github.com/tidwall/jsonc"
)

// ManifestFile is the workspace manifest at the workspace root.
const ManifestFile = "package.json"

// Manifest edits the "workspaces" member of a package.json. Both the plain
// array form and the {"packages": [...]} object form are supported.
type Manifest struct {
	path string
}

// OpenManifest returns a Manifest for the package.json at path. The file is
// read on every call.
func OpenManifest(path string) *Manifest {
	return &Manifest{path: path}
}

// Path returns the manifest location.
func (m *Manifest) Path() string { return m.path }

// Paths returns the workspace entries in file order.
func (m *Manifest) Paths() ([]string, error) {
	doc, _, err := m.read()
	if err != nil {
		return nil, err
	}
	raw, ok := doc.get("workspaces")
	if !ok {
		return nil, nil
	}
	paths, _, err := decodeWorkspaces(raw)
	return paths, err
}

// Register adds p if absent. It reports whether the file changed.
func (m *Manifest) Register(p string) (bool, error) {
	return m.update(func(paths []string) ([]string, bool) {
		if slices.Contains(paths, p) {
			return paths, false
		}
		return append(paths, p), true
	})
}

// Deregister removes every occurrence of p. It reports whether the file
// changed.
func (m *Manifest) Deregister(p string) (bool, error) {
	return m.update(func(paths []string) ([]string, bool) {
		next := slices.DeleteFunc(slices.Clone(paths), func(s string) bool { return s == p })
		return next, len(next) != len(paths)
	})
}

// Covers reports whether p is listed exactly or matched by a glob entry
// such as "portals/*".
func (m *Manifest) Covers(p string) (bool, error) {
	paths, err := m.Paths()
	if err != nil {
		return false, err
	}
	for _, pattern := range paths {
		if pattern == p {
			return true, nil
		}
		if ok, err := doublestar.Match(pattern, p); err == nil && ok {
			return true, nil
		}
	}
	return false, nil
}

func (m *Manifest) read() (*object, []byte, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading workspace manifest: %w", err)
	}
	doc, err := parseObject(jsonc.ToJSON(data))
	if err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", m.path, err)
	}
	return doc, data, nil
}

func (m *Manifest) update(fn func([]string) ([]string, bool)) (bool, error) {
	doc, original, err := m.read()
	if err != nil {
		return false, err
	}

	var paths []string
	var nested *object
	if raw, ok := doc.get("workspaces"); ok {
		if paths, nested, err = decodeWorkspaces(raw); err != nil {
			return false, err
		}
	}

	next, changed := fn(paths)
	if !changed {
		return false, nil
	}
	if next == nil {
		next = []string{}
	}

	encoded, err := marshalPlain(next)
	if err != nil {
		return false, err
	}
	if nested != nil {
		nested.set("packages", encoded)
		if encoded, err = nested.marshal(); err != nil {
			return false, err
		}
	}
	doc.set("workspaces", encoded)

	compact, err := doc.marshal()
	if err != nil {
		return false, err
	}
	out, err := formatJSON(compact, detectIndent(original))
	if err != nil {
		return false, fmt.Errorf("formatting %s: %w", m.path, err)
	}

	perm := os.FileMode(0644)
	if info, err := os.Stat(m.path); err == nil {
		perm = info.Mode().Perm()
	}
	if err := fsutil.WriteFileAtomic(m.path, out, perm); err != nil {
		return false, err
	}
	return true, nil
}

// decodeWorkspaces reads either workspace form. nested is non-nil for the
// object form.
func decodeWorkspaces(raw json.RawMessage) (paths []string, nested *object, err error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		nested, err = parseObject(trimmed)
		if err != nil {
			return nil, nil, fmt.Errorf("parsing workspaces: %w", err)
		}
		if pkgs, ok := nested.get("packages"); ok {
			if err := json.Unmarshal(pkgs, &paths); err != nil {
				return nil, nil, fmt.Errorf("parsing workspaces.packages: %w", err)
			}
		}
		return paths, nested, nil
	}

	if err := json.Unmarshal(raw, &paths); err != nil {
		return nil, nil, fmt.Errorf("parsing workspaces: %w", err)
	}
	return paths, nil, nil
}
