package lifecycle

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/portal-labs/portals/internal/workspace"
)

func TestCheckHealthyWorkspace(t *testing.T) {
	f := newFixture(t)
	f.install(t, "cbt")

	r, err := f.engine.Check(context.Background(), CheckOptions{Tools: []string{"sh"}})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if n := r.Problems(); n != 0 {
		t.Errorf("Problems() = %d, findings %+v", n, r.Findings)
	}
	for _, fd := range r.Findings {
		if fd.Severity != SeverityOK {
			t.Errorf("unexpected finding %+v", fd)
		}
	}
}

func TestCheckReportsDrift(t *testing.T) {
	f := newFixture(t)
	f.install(t, "cbt")
	ctx := context.Background()

	// cbt drops out of both files; a portal that no longer exists stays listed.
	m := workspace.OpenManifest(filepath.Join(f.root, workspace.ManifestFile))
	if _, err := m.Deregister("portals/cbt"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Register("portals/gone"); err != nil {
		t.Fatal(err)
	}
	pf, err := workspace.LoadProcessFile(filepath.Join(f.root, workspace.ProcessFileName))
	if err != nil {
		t.Fatal(err)
	}
	pf.Deregister("cbt")
	pf.Register("gone", "./portals/gone")
	if err := pf.Save(); err != nil {
		t.Fatal(err)
	}

	r, err := f.engine.Check(ctx, CheckOptions{})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if n := r.Problems(); n != 1 {
		t.Errorf("Problems() = %d, want 1; findings %+v", n, r.Findings)
	}
	var warnings []string
	for _, fd := range r.Findings {
		if fd.Severity == SeverityWarn {
			warnings = append(warnings, fd.Message)
		}
	}
	if len(warnings) != 3 {
		t.Errorf("warnings = %q, want 3", warnings)
	}
	if paths := f.manifestPaths(t); !slices.Equal(paths, []string{"portals/gone"}) {
		t.Errorf("check without fix changed the manifest: %v", paths)
	}

	f.out.Reset()
	r, err = f.engine.Check(ctx, CheckOptions{Fix: true})
	if err != nil {
		t.Fatalf("Check(fix): %v", err)
	}
	if n := r.Problems(); n != 0 {
		t.Errorf("Problems() after fix = %d; findings %+v", n, r.Findings)
	}
	if !strings.Contains(f.out.String(), "(fixed)") {
		t.Errorf("output does not mention fixes:\n%s", f.out.String())
	}
	if paths := f.manifestPaths(t); !slices.Equal(paths, []string{"portals/cbt"}) {
		t.Errorf("manifest after fix = %v", paths)
	}
	if _, ok := f.processPort(t, "gone"); ok {
		t.Error("stale process entry kept")
	}
	if _, ok := f.processPort(t, "cbt"); !ok {
		t.Error("cbt not re-registered in process file")
	}
}

func TestCheckUnmanagedAndMissingTool(t *testing.T) {
	f := newFixture(t)
	if err := os.MkdirAll(f.portalDir("legacy"), 0755); err != nil {
		t.Fatal(err)
	}
	if _, err := workspace.OpenManifest(filepath.Join(f.root, workspace.ManifestFile)).Register("portals/*"); err != nil {
		t.Fatal(err)
	}

	r, err := f.engine.Check(context.Background(), CheckOptions{Tools: []string{"definitely-not-a-real-tool"}})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if n := r.Problems(); n != 0 {
		t.Errorf("Problems() = %d; findings %+v", n, r.Findings)
	}
	out := f.out.String()
	for _, want := range []string{"definitely-not-a-real-tool not found in PATH", "legacy has no .portal-config.json", "legacy has no entry in ecosystem.config.js"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
