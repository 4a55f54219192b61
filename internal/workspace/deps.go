package workspace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
)

// DefaultInstallCommand installs dependencies for every workspace member.
var DefaultInstallCommand = []string{"npm", "install"}

// NpmInstaller runs the package manager's install command at the workspace
// root.
type NpmInstaller struct {
	Command []string
}

// Install runs the install command in dir. A dir without package.json is
// skipped. Output is captured and the tail included in the error.
func (n NpmInstaller) Install(ctx context.Context, dir string) error {
	if _, err := os.Stat(filepath.Join(dir, ManifestFile)); err != nil {
		return nil
	}

	command := n.Command
	if len(command) == 0 {
		command = DefaultInstallCommand
	}
	bin, err := exec.LookPath(command[0])
	if err != nil {
		return fmt.Errorf("%s not found on PATH: %w", command[0], err)
	}

	cmd := exec.CommandContext(ctx, bin, command[1:]...)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s in %s: %w%s", strings.Join(command, " "), dir, err, outputTail(out.String()))
	}
	return nil
}

func outputTail(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return ""
	}
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return "\n" + strings.Join(lines, "\n")
}

var dependencyFields = []string{
	"dependencies",
	"devDependencies",
	"peerDependencies",
	"optionalDependencies",
}

// Dependencies maps a declaration field (dependencies, devDependencies, ...)
// to its package → version range entries. Empty fields are omitted.
type Dependencies map[string]map[string]string

// ReadDependencies reads the dependency declarations of dir/package.json.
// A missing file yields an empty set.
func ReadDependencies(dir string) (Dependencies, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if errors.Is(err, fs.ErrNotExist) {
		return Dependencies{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading package descriptor: %w", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Join(dir, ManifestFile), err)
	}

	deps := Dependencies{}
	for _, field := range dependencyFields {
		raw, ok := doc[field]
		if !ok {
			continue
		}
		var entries map[string]string
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", field, err)
		}
		if len(entries) > 0 {
			deps[field] = entries
		}
	}
	return deps, nil
}

// DependenciesEqual reports whether a and b declare the same packages with
// the same ranges in the same fields.
func DependenciesEqual(a, b Dependencies) bool {
	return maps.EqualFunc(a, b, func(x, y map[string]string) bool {
		return maps.Equal(x, y)
	})
}
