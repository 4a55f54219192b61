package lifecycle

import (
	"context"
	"errors"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/portal-labs/portals/internal/fsutil"
	"github.com/portal-labs/portals/internal/portal"
	"github.com/portal-labs/portals/internal/registry"
)

// bumpCBT makes the registry and fetcher serve a new cbt release.
func (f *fixture) bumpCBT() {
	desc := f.registry.reg.Portals["cbt"]
	desc.Version = "1.3.0"
	f.registry.reg.Portals["cbt"] = desc
	f.fetcher.files = map[string]string{
		"index.js":   "console.log('v2')\n",
		"src/new.js": "export const added = true\n",
	}
}

func TestUpdateMergesSnapshot(t *testing.T) {
	f := newFixture(t)
	f.install(t, "cbt")
	dir := f.portalDir("cbt")
	writeFile(t, filepath.Join(dir, "custom.txt"), "local only\n")
	f.bumpCBT()

	res, err := f.engine.Update(context.Background(), "cbt", false)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if got := readFile(t, filepath.Join(dir, "index.js")); got != "console.log('v2')\n" {
		t.Errorf("index.js = %q, want the new release", got)
	}
	if !fsutil.Exists(filepath.Join(dir, "src", "new.js")) {
		t.Error("new snapshot file not copied")
	}
	for _, kept := range []string{"custom.txt", "README.md", "src/app.js"} {
		if !fsutil.Exists(filepath.Join(dir, kept)) {
			t.Errorf("merge deleted live file %s", kept)
		}
	}
	if res.Replaced || res.FilesCopied != 2 {
		t.Errorf("unexpected result %+v", res)
	}

	meta, err := portal.ReadMetadata(dir)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Version != "1.3.0" || meta.PreviousVersion != "1.2.0" {
		t.Errorf("versions = %q (previous %q)", meta.Version, meta.PreviousVersion)
	}
	if meta.UpdatedAt == nil || !meta.UpdatedAt.Equal(testNow) {
		t.Errorf("UpdatedAt = %v", meta.UpdatedAt)
	}
	if meta.BackupLocation != res.BackupPath || meta.Repo != cbtLocator || !meta.InstalledAt.Equal(testNow) {
		t.Errorf("metadata lost fields: %+v", meta)
	}

	if got := readFile(t, filepath.Join(res.BackupPath, "index.js")); got != "console.log('v1')\n" {
		t.Errorf("backup holds %q, want the pre-update file", got)
	}
	if !fsutil.Exists(filepath.Join(res.BackupPath, "custom.txt")) {
		t.Error("backup is missing local files")
	}
}

func TestUpdateForceReplaces(t *testing.T) {
	f := newFixture(t)
	f.install(t, "cbt")
	dir := f.portalDir("cbt")
	writeFile(t, filepath.Join(dir, "custom.txt"), "local only\n")
	f.bumpCBT()

	res, err := f.engine.Update(context.Background(), "cbt", true)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !res.Replaced {
		t.Error("Replaced = false for a forced update")
	}

	got := slices.Sorted(maps.Keys(tree(t, dir)))
	want := []string{".", portal.MetadataFile, "index.js", "src", "src/new.js"}
	if !slices.Equal(got, want) {
		t.Errorf("tree after forced update = %v, want %v", got, want)
	}
	if meta, err := portal.ReadMetadata(dir); err != nil || meta.PreviousVersion != "1.2.0" {
		t.Errorf("metadata after forced update: %+v, %v", meta, err)
	}
}

func TestUpdateDirtyWithoutForce(t *testing.T) {
	f := newFixture(t)
	f.install(t, "cbt")
	before := tree(t, f.portalDir("cbt"))
	f.changes.dirty = true
	f.bumpCBT()

	_, err := f.engine.Update(context.Background(), "cbt", false)
	if !errors.Is(err, ErrUncommittedChanges) {
		t.Fatalf("err = %v, want ErrUncommittedChanges", err)
	}
	if !strings.Contains(err.Error(), "--force") {
		t.Errorf("error gives no guidance: %v", err)
	}

	if fsutil.Exists(filepath.Join(f.root, "backups")) {
		t.Error("backup created for a refused update")
	}
	if len(f.fetcher.calls) != 1 {
		t.Errorf("fetcher called %d times, want only the install", len(f.fetcher.calls))
	}
	if after := tree(t, f.portalDir("cbt")); !maps.Equal(before, after) {
		t.Error("portal changed by a refused update")
	}
}

func TestUpdateDirtyWithForce(t *testing.T) {
	f := newFixture(t)
	f.install(t, "cbt")
	f.changes.dirty = true

	if _, err := f.engine.Update(context.Background(), "cbt", true); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !strings.Contains(f.out.String(), "uncommitted changes") {
		t.Error("no warning for forced update over local changes")
	}
}

func TestUpdateFailureRestoresBackup(t *testing.T) {
	tests := []struct {
		name  string
		force bool
		setup func(f *fixture)
		want  error
	}{
		{
			name:  "fetch fails",
			setup: func(f *fixture) { f.fetcher.fail = map[string]error{cbtLocator: errors.New("network down")} },
		},
		{
			name:  "fetch fails with force",
			force: true,
			setup: func(f *fixture) { f.fetcher.fail = map[string]error{cbtLocator: errors.New("network down")} },
		},
		{
			name:  "empty snapshot",
			setup: func(f *fixture) { f.fetcher.files = nil },
			want:  ErrEmptySnapshot,
		},
		{
			// The live directory is already replaced when the metadata
			// write runs into a directory of the same name.
			name:  "metadata write fails after replace",
			force: true,
			setup: func(f *fixture) {
				f.fetcher.files = map[string]string{
					"index.js":                  "console.log('v2')\n",
					".portal-config.json/stray": "x",
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.install(t, "cbt")
			dir := f.portalDir("cbt")
			writeFile(t, filepath.Join(dir, "custom.txt"), "local only\n")
			before := tree(t, dir)
			tt.setup(f)

			_, err := f.engine.Update(context.Background(), "cbt", tt.force)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if !strings.Contains(err.Error(), "backup at") {
				t.Errorf("error does not name the backup: %v", err)
			}

			after := tree(t, dir)
			if !maps.Equal(before, after) {
				t.Errorf("portal not restored byte-identically:\nbefore %v\nafter  %v", before, after)
			}
			if !strings.Contains(f.out.String(), "Restored cbt from backup") {
				t.Errorf("restore not reported:\n%s", f.out.String())
			}
		})
	}
}

func TestUpdateBackupFailure(t *testing.T) {
	f := newFixture(t)
	f.install(t, "cbt")
	writeFile(t, filepath.Join(f.root, "backups"), "not a directory")

	_, err := f.engine.Update(context.Background(), "cbt", false)
	if !errors.Is(err, ErrBackupFailed) {
		t.Fatalf("err = %v, want ErrBackupFailed", err)
	}
	if len(f.fetcher.calls) != 1 {
		t.Error("update fetched a snapshot without a backup")
	}
}

func TestUpdateNotInstalledOrNotManaged(t *testing.T) {
	f := newFixture(t)

	if _, err := f.engine.Update(context.Background(), "cbt", false); !errors.Is(err, ErrNotInstalled) {
		t.Errorf("err = %v, want ErrNotInstalled", err)
	}

	writeFile(t, filepath.Join(f.portalDir("legacy"), "index.html"), "<html></html>")
	if _, err := f.engine.Update(context.Background(), "legacy", false); !errors.Is(err, ErrNotManaged) {
		t.Errorf("err = %v, want ErrNotManaged", err)
	}
}

func TestUpdateKeepsVersionWhenRegistryUnavailable(t *testing.T) {
	f := newFixture(t)
	f.install(t, "cbt")
	f.registry.reg, f.registry.err = nil, registry.ErrNoRegistry

	res, err := f.engine.Update(context.Background(), "cbt", false)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if res.Version != "1.2.0" || res.PreviousVersion != "1.2.0" {
		t.Errorf("versions = %q/%q", res.Version, res.PreviousVersion)
	}
}

func TestUpdateReinstallsOnDependencyChange(t *testing.T) {
	f := newFixture(t)
	f.fetcher.files["package.json"] = `{"dependencies": {"react": "^19.0.0"}}`
	f.install(t, "cbt")
	installs := f.installer.calls

	// Same declarations: no reinstall.
	res, err := f.engine.Update(context.Background(), "cbt", false)
	if err != nil {
		t.Fatal(err)
	}
	if res.DependenciesChanged || f.installer.calls != installs {
		t.Errorf("reinstalled without a dependency change (calls %d)", f.installer.calls)
	}

	f.fetcher.files["package.json"] = `{"dependencies": {"react": "^19.1.0"}}`
	res, err = f.engine.Update(context.Background(), "cbt", false)
	if err != nil {
		t.Fatal(err)
	}
	if !res.DependenciesChanged || f.installer.calls != installs+1 {
		t.Errorf("dependency change not reinstalled (calls %d)", f.installer.calls)
	}
}

func TestUpdateAll(t *testing.T) {
	f := newFixture(t)
	f.install(t, "cbt")
	f.install(t, "member")
	writeFile(t, filepath.Join(f.portalDir("legacy"), "index.html"), "<html></html>")
	f.fetcher.fail = map[string]error{memberLocator: errors.New("repository gone")}

	res, err := f.engine.UpdateAll(context.Background(), false)
	if err == nil || !strings.Contains(err.Error(), "1 of 2") {
		t.Fatalf("err = %v, want a failure count", err)
	}
	if !slices.Equal(res.Updated, []string{"cbt"}) {
		t.Errorf("Updated = %v", res.Updated)
	}
	if !slices.Equal(res.Skipped, []string{"legacy"}) {
		t.Errorf("Skipped = %v", res.Skipped)
	}
	if _, ok := res.Failed["member"]; !ok || len(res.Failed) != 1 {
		t.Errorf("Failed = %v", res.Failed)
	}
	if _, err := os.Stat(filepath.Join(f.portalDir("member"), "index.js")); err != nil {
		t.Errorf("failed portal not restored: %v", err)
	}
}
