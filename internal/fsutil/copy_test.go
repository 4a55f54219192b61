package fsutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// writeTree creates files (relative path → content) under root.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func TestCopyDirFullTree(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "src")
	dst := filepath.Join(tmp, "dst")

	writeTree(t, src, map[string]string{
		"package.json":        `{"name":"cbt"}`,
		"src/index.js":        "console.log('hi')",
		".portal-config.json": "{}",
		"node_modules/x/a.js": "module.exports = 1",
	})
	if err := os.Chmod(filepath.Join(src, "src", "index.js"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("index.js", filepath.Join(src, "src", "main.js")); err != nil {
		t.Fatal(err)
	}

	if err := CopyDir(src, dst, nil); err != nil {
		t.Fatalf("CopyDir: %v", err)
	}

	for _, rel := range []string{"package.json", "src/index.js", ".portal-config.json", "node_modules/x/a.js"} {
		if got, want := readFile(t, filepath.Join(dst, rel)), readFile(t, filepath.Join(src, rel)); got != want {
			t.Errorf("%s = %q, want %q", rel, got, want)
		}
	}

	info, err := os.Stat(filepath.Join(dst, "src", "index.js"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0755 {
		t.Errorf("index.js mode = %v, want 0755", info.Mode().Perm())
	}

	link, err := os.Readlink(filepath.Join(dst, "src", "main.js"))
	if err != nil {
		t.Fatalf("symlink not recreated: %v", err)
	}
	if link != "index.js" {
		t.Errorf("symlink target = %q, want %q", link, "index.js")
	}
}

func TestCopyDirSkipNames(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "src")
	dst := filepath.Join(tmp, "dst")

	writeTree(t, src, map[string]string{
		"index.js":            "x",
		"node_modules/dep/a":  "a",
		".git/HEAD":           "ref",
		"nested/.DS_Store":    "",
		"nested/keep.txt":     "k",
	})

	if err := CopyDir(src, dst, SkipNames("node_modules", ".git", ".DS_Store")); err != nil {
		t.Fatalf("CopyDir: %v", err)
	}

	for _, rel := range []string{"node_modules", ".git", "nested/.DS_Store"} {
		if Exists(filepath.Join(dst, rel)) {
			t.Errorf("%s should not be copied", rel)
		}
	}
	for _, rel := range []string{"index.js", "nested/keep.txt"} {
		if !Exists(filepath.Join(dst, rel)) {
			t.Errorf("%s should be copied", rel)
		}
	}
}

func TestMergeDirNeverDeletesLiveFiles(t *testing.T) {
	tmp := t.TempDir()
	snapshot := filepath.Join(tmp, "snapshot")
	live := filepath.Join(tmp, "live")

	writeTree(t, snapshot, map[string]string{
		"package.json":        `{"version":"2.0.0"}`,
		"src/app.js":          "v2",
		".portal-config.json": `{"name":"upstream"}`,
	})
	writeTree(t, live, map[string]string{
		"package.json":        `{"version":"1.0.0"}`,
		"src/app.js":          "v1",
		"src/custom.js":       "mine",
		".portal-config.json": `{"name":"cbt"}`,
	})

	n, err := MergeDir(snapshot, live, SkipRootNames(".portal-config.json"))
	if err != nil {
		t.Fatalf("MergeDir: %v", err)
	}
	if n != 2 {
		t.Errorf("files written = %d, want 2", n)
	}

	if got := readFile(t, filepath.Join(live, "src", "app.js")); got != "v2" {
		t.Errorf("app.js = %q, want v2", got)
	}
	if got := readFile(t, filepath.Join(live, "src", "custom.js")); got != "mine" {
		t.Errorf("custom.js = %q, want it preserved", got)
	}
	if got := readFile(t, filepath.Join(live, ".portal-config.json")); got != `{"name":"cbt"}` {
		t.Errorf("metadata overwritten: %q", got)
	}
}

func TestMergeDirReplacesTypeConflicts(t *testing.T) {
	tmp := t.TempDir()
	snapshot := filepath.Join(tmp, "snapshot")
	live := filepath.Join(tmp, "live")

	writeTree(t, snapshot, map[string]string{"config": "now a file"})
	writeTree(t, live, map[string]string{"config/old.json": "{}"})

	if _, err := MergeDir(snapshot, live, nil); err != nil {
		t.Fatalf("MergeDir: %v", err)
	}
	if got := readFile(t, filepath.Join(live, "config")); got != "now a file" {
		t.Errorf("config = %q", got)
	}
}

func TestMove(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "a")
	dst := filepath.Join(tmp, "deeper", "b")
	writeTree(t, src, map[string]string{"f.txt": "data"})

	if err := Move(src, dst); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if Exists(src) {
		t.Error("source should be gone")
	}
	if got := readFile(t, filepath.Join(dst, "f.txt")); got != "data" {
		t.Errorf("moved content = %q", got)
	}

	writeTree(t, src, map[string]string{"g.txt": "x"})
	if err := Move(src, dst); err == nil {
		t.Error("expected error when destination exists")
	}
}

func TestIsEmptyDirAndRemoveIfEmpty(t *testing.T) {
	tmp := t.TempDir()
	dir := filepath.Join(tmp, "d")

	empty, err := IsEmptyDir(dir)
	if err != nil || !empty {
		t.Errorf("missing dir: empty=%v err=%v, want true nil", empty, err)
	}

	writeTree(t, dir, map[string]string{"x": "1"})
	if removed, _ := RemoveIfEmpty(dir); removed {
		t.Error("non-empty dir must not be removed")
	}

	if err := os.Remove(filepath.Join(dir, "x")); err != nil {
		t.Fatal(err)
	}
	removed, err := RemoveIfEmpty(dir)
	if err != nil || !removed {
		t.Errorf("RemoveIfEmpty = %v, %v; want true, nil", removed, err)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "nested", "cache.json")

	if err := WriteFileAtomic(path, []byte("one"), 0644); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("two"), 0644); err != nil {
		t.Fatalf("second write: %v", err)
	}
	if got := readFile(t, path); got != "two" {
		t.Errorf("content = %q, want two", got)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the target file, found %d entries", len(entries))
	}
}

func TestDirSize(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.txt":       "12345",
		"sub/b.txt":   "123",
		"sub/c/d.txt": "1234567890",
	})

	size, err := DirSize(context.Background(), root)
	if err != nil {
		t.Fatalf("DirSize: %v", err)
	}
	if size != 18 {
		t.Errorf("DirSize = %d, want 18", size)
	}
}

func TestHumanSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{999, "999 B"},
		{1500, "1.5 kB"},
		{2_000_000, "2.0 MB"},
	}
	for _, tt := range tests {
		if got := HumanSize(tt.n); got != tt.want {
			t.Errorf("HumanSize(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
