package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/portal-labs/portals/internal/branding"
	"github.com/spf13/viper"
	"github.com/tidwall/jsonc"
)

const cacheFileName = "registry-cache.json"

// Settings is the resolved configuration for one invocation.
type Settings struct {
	WorkspaceRoot  string
	PortalsDir     string // absolute
	BackupsDir     string // absolute
	RegistryURL    string
	CachePath      string
	SnapshotTool   []string
	InstallCommand []string
}

// Resolve determines the workspace root and builds Settings from the loaded
// config. The root comes from workspaceFlag, then PORTALS_WORKSPACE (or the
// workspace config key), then the nearest ancestor of the working directory
// whose package.json declares workspaces, then the working directory itself.
func Resolve(workspaceFlag string) (*Settings, error) {
	root := workspaceFlag
	if root == "" {
		root = viper.GetString(KeyWorkspace)
	}
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolving working directory: %w", err)
		}
		root = FindWorkspaceRoot(cwd)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace root %s: %w", root, err)
	}

	if err := mergeWorkspace(abs); err != nil {
		return nil, err
	}

	return &Settings{
		WorkspaceRoot:  abs,
		PortalsDir:     underRoot(abs, viper.GetString(KeyPortalsDir)),
		BackupsDir:     underRoot(abs, viper.GetString(KeyBackupsDir)),
		RegistryURL:    viper.GetString(KeyRegistryURL),
		CachePath:      filepath.Join(abs, branding.HomeDir(), cacheFileName),
		SnapshotTool:   strings.Fields(viper.GetString(KeySnapshotTool)),
		InstallCommand: strings.Fields(viper.GetString(KeyInstallCommand)),
	}, nil
}

// PortalsRel returns the portals directory relative to the workspace root,
// in slash form, as it appears in the workspace manifest.
func (s *Settings) PortalsRel() string {
	rel, err := filepath.Rel(s.WorkspaceRoot, s.PortalsDir)
	if err != nil {
		return filepath.ToSlash(s.PortalsDir)
	}
	return filepath.ToSlash(rel)
}

func underRoot(root, dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}

// FindWorkspaceRoot walks up from start looking for a package.json that
// declares "workspaces". Returns start when none is found.
func FindWorkspaceRoot(start string) string {
	dir := start
	for {
		if declaresWorkspaces(filepath.Join(dir, "package.json")) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}

func declaresWorkspaces(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
		return false
	}
	_, ok := doc["workspaces"]
	return ok
}
