package scaffold

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/portal-labs/portals/internal/workspace"
)

func TestPackageName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"acme-portals", "acme-portals"},
		{"Acme Portals", "acme-portals"},
		{"  My_Workspace ", "my_workspace"},
		{"@@@", "portal-workspace"},
	}
	for _, tt := range tests {
		if got := packageName(tt.in); got != tt.want {
			t.Errorf("packageName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestInitWorkspace(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Acme Portals")

	result, err := InitWorkspace(dir, NewWorkspaceData(dir, ""))
	if err != nil {
		t.Fatalf("InitWorkspace() error: %v", err)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}

	for _, name := range []string{"package.json", "ecosystem.config.js", ".gitignore", "README.md", "portals/", "backups/"} {
		if !slices.Contains(result.Files, name) {
			t.Errorf("Files missing %s: %v", name, result.Files)
		}
	}

	pkg, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(pkg), `"name": "acme-portals"`) {
		t.Errorf("package.json name not derived from directory:\n%s", pkg)
	}

	paths, err := workspace.OpenManifest(filepath.Join(dir, "package.json")).Paths()
	if err != nil || len(paths) != 0 {
		t.Errorf("workspaces = %v, %v; want empty", paths, err)
	}

	pf, err := workspace.LoadProcessFile(filepath.Join(dir, "ecosystem.config.js"))
	if err != nil {
		t.Fatalf("process file: %v", err)
	}
	if len(pf.Apps()) != 0 || pf.NextPort() != workspace.BasePort {
		t.Errorf("process file not empty: %v", pf.Apps())
	}

	gitignore, _ := os.ReadFile(filepath.Join(dir, ".gitignore"))
	if !strings.Contains(string(gitignore), "backups/") || !strings.Contains(string(gitignore), ".portals/staging/") {
		t.Errorf(".gitignore = %q", gitignore)
	}
	if info, err := os.Stat(filepath.Join(dir, "portals")); err != nil || !info.IsDir() {
		t.Errorf("portals directory missing: %v", err)
	}
}

func TestInitWorkspaceRefusesExisting(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"name":"taken"}`), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := InitWorkspace(dir, NewWorkspaceData(dir, "acme"))
	if !errors.Is(err, ErrWorkspaceExists) {
		t.Fatalf("err = %v, want ErrWorkspaceExists", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "ecosystem.config.js")); err == nil {
		t.Error("files written into an existing workspace")
	}
}

func TestInitWorkspaceKeepsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("dist/\n"), 0644); err != nil {
		t.Fatal(err)
	}

	result, err := InitWorkspace(dir, NewWorkspaceData(dir, "acme"))
	if err != nil {
		t.Fatalf("InitWorkspace() error: %v", err)
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], ".gitignore") {
		t.Errorf("Warnings = %v", result.Warnings)
	}
	if data, _ := os.ReadFile(filepath.Join(dir, ".gitignore")); string(data) != "dist/\n" {
		t.Errorf(".gitignore overwritten: %q", data)
	}
}
