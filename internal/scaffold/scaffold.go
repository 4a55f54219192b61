package scaffold

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/portal-labs/portals/internal/branding"
	"github.com/portal-labs/portals/internal/workspace"
)

//go:embed templates
var templateFS embed.FS

const templatesDir = "templates/workspace"

// ErrWorkspaceExists is returned when the target already has a package.json.
var ErrWorkspaceExists = errors.New("workspace already initialized")

// WorkspaceData holds the variables available to workspace templates.
type WorkspaceData struct {
	Name       string // package name, e.g. "acme-portals"
	CLIName    string
	HomeDir    string
	PortalsDir string // relative to the workspace root
	BackupsDir string // relative to the workspace root
	Created    string // date, YYYY-MM-DD
}

// Result holds the outcome of InitWorkspace.
type Result struct {
	Dir      string
	Files    []string
	Warnings []string
}

// NewWorkspaceData returns WorkspaceData for a workspace in dir. An empty
// name is derived from the directory name.
func NewWorkspaceData(dir, name string) *WorkspaceData {
	if name == "" {
		name = filepath.Base(dir)
	}
	return &WorkspaceData{
		Name:       packageName(name),
		CLIName:    branding.CLIName(),
		HomeDir:    branding.HomeDir(),
		PortalsDir: "portals",
		BackupsDir: "backups",
		Created:    time.Now().Format(time.DateOnly),
	}
}

// packageName lowercases name and turns anything npm would reject into '-'.
func packageName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '.', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	out := strings.Trim(b.String(), "-._")
	if out == "" {
		return "portal-workspace"
	}
	return out
}

// InitWorkspace writes a new workspace into dir, creating it if needed. It
// refuses to touch a directory that already has a package.json. Other
// existing files are kept and reported as warnings.
func InitWorkspace(dir string, data *WorkspaceData) (*Result, error) {
	if _, err := os.Stat(filepath.Join(dir, workspace.ManifestFile)); err == nil {
		return nil, fmt.Errorf("%w: %s already exists in %s", ErrWorkspaceExists, workspace.ManifestFile, dir)
	}

	entries, err := fs.ReadDir(templateFS, templatesDir)
	if err != nil {
		return nil, fmt.Errorf("reading workspace templates: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating workspace directory: %w", err)
	}

	funcs := template.FuncMap{"json": jsonString}
	result := &Result{Dir: dir}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		outName := outputName(entry.Name())
		outPath := filepath.Join(dir, outName)
		if _, err := os.Stat(outPath); err == nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s already exists, left unchanged", outName))
			continue
		}

		tmplBytes, err := fs.ReadFile(templateFS, path.Join(templatesDir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", entry.Name(), err)
		}
		tmpl, err := template.New(entry.Name()).Funcs(funcs).Parse(string(tmplBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", entry.Name(), err)
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("executing template %s: %w", entry.Name(), err)
		}
		if err := os.WriteFile(outPath, buf.Bytes(), 0644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", outPath, err)
		}
		result.Files = append(result.Files, outName)
	}

	for _, sub := range []string{data.PortalsDir, data.BackupsDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", sub, err)
		}
		result.Files = append(result.Files, sub+"/")
	}

	// The generated files must be readable by the editors that maintain them.
	if _, err := workspace.OpenManifest(filepath.Join(dir, workspace.ManifestFile)).Paths(); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("generated %s is invalid: %v", workspace.ManifestFile, err))
	}
	if _, err := workspace.LoadProcessFile(filepath.Join(dir, workspace.ProcessFileName)); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("generated %s is invalid: %v", workspace.ProcessFileName, err))
	}

	return result, nil
}

// outputName strips .tmpl and turns "gitignore" into ".gitignore", which
// cannot be embedded under its real name.
func outputName(name string) string {
	name = strings.TrimSuffix(name, ".tmpl")
	if name == "gitignore" {
		return ".gitignore"
	}
	return name
}

func jsonString(s string) (string, error) {
	b, err := json.Marshal(s)
	return string(b), err
}
