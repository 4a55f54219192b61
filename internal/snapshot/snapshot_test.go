package snapshot

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// fakeFetcher writes files into dest, or leaves partial output and fails.
type fakeFetcher struct {
	files map[string]string
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string, dest string) error {
	f.calls++
	if err := os.MkdirAll(dest, 0755); err != nil {
		return err
	}
	for rel, content := range f.files {
		if err := os.WriteFile(filepath.Join(dest, rel), []byte(content), 0644); err != nil {
			return err
		}
	}
	return f.err
}

func TestFallbackUsesSecondStrategy(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "portals", "cbt")
	primary := &fakeFetcher{files: map[string]string{"partial.txt": "half"}, err: errors.New("tool crashed")}
	secondary := &fakeFetcher{files: map[string]string{"index.js": "ok"}}

	f := &Fallback{Fetchers: []Fetcher{primary, secondary}}
	if err := f.Fetch(context.Background(), "org/cbt", dest); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if primary.calls != 1 || secondary.calls != 1 {
		t.Errorf("calls = %d, %d", primary.calls, secondary.calls)
	}
	if _, err := os.Stat(filepath.Join(dest, "partial.txt")); err == nil {
		t.Error("partial output of the failed strategy should be cleared")
	}
	if _, err := os.Stat(filepath.Join(dest, "index.js")); err != nil {
		t.Errorf("index.js missing: %v", err)
	}
}

func TestFallbackStopsAtFirstSuccess(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "cbt")
	primary := &fakeFetcher{files: map[string]string{"index.js": "ok"}}
	secondary := &fakeFetcher{}

	f := &Fallback{Fetchers: []Fetcher{primary, secondary}}
	if err := f.Fetch(context.Background(), "org/cbt", dest); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if secondary.calls != 0 {
		t.Error("secondary strategy should not run")
	}
}

func TestFallbackAllFailCleansUp(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "cbt")
	f := &Fallback{Fetchers: []Fetcher{
		&fakeFetcher{files: map[string]string{"a": "a"}, err: errors.New("tool failed")},
		&fakeFetcher{files: map[string]string{"b": "b"}, err: errors.New("clone failed")},
	}}

	err := f.Fetch(context.Background(), "org/cbt", dest)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "tool failed") || !strings.Contains(err.Error(), "clone failed") {
		t.Errorf("error should carry both causes: %v", err)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("destination should not exist after total failure")
	}
}

func TestToolFetcher(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	dest := filepath.Join(t.TempDir(), "portals", "cbt")

	tool := &ToolFetcher{Command: []string{"sh", "-c", `mkdir -p "$2" && printf '%s' "$1" > "$2/source.txt"`, "snapshot"}}
	if err := tool.Fetch(context.Background(), "https://github.com/org/cbt", dest); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dest, "source.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "https://github.com/org/cbt" {
		t.Errorf("tool received locator %q", data)
	}
}

func TestToolFetcherEmptyOutput(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	dest := filepath.Join(t.TempDir(), "cbt")

	tool := &ToolFetcher{Command: []string{"sh", "-c", `mkdir -p "$2"`, "snapshot"}}
	if err := tool.Fetch(context.Background(), "org/cbt", dest); !errors.Is(err, ErrEmptySnapshot) {
		t.Errorf("err = %v, want ErrEmptySnapshot", err)
	}
}

func TestToolFetcherMissingBinary(t *testing.T) {
	tool := &ToolFetcher{Command: []string{"definitely-not-a-real-snapshot-tool"}}
	err := tool.Fetch(context.Background(), "org/cbt", filepath.Join(t.TempDir(), "cbt"))
	if err == nil || !strings.Contains(err.Error(), "not found in PATH") {
		t.Errorf("err = %v", err)
	}
}

func TestGitFetcherStripsHistory(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	ctx := context.Background()
	src := t.TempDir()
	run := func(args ...string) {
		t.Helper()
		cmd := exec.CommandContext(ctx, "git", append([]string{"-C", src, "-c", "user.name=test", "-c", "user.email=test@example.com"}, args...)...)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	run("init", "--quiet")
	if err := os.WriteFile(filepath.Join(src, "package.json"), []byte(`{"name":"cbt"}`), 0644); err != nil {
		t.Fatal(err)
	}
	run("add", ".")
	run("commit", "--quiet", "-m", "initial")

	dest := filepath.Join(t.TempDir(), "portals", "cbt")
	if err := (GitFetcher{}).Fetch(ctx, "file://"+src, dest); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, "package.json")); err != nil {
		t.Errorf("package.json missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, ".git")); !os.IsNotExist(err) {
		t.Error(".git should be stripped")
	}
	if _, err := os.Stat(dest + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary clone directory left behind")
	}
}

func TestGitFetcherBadLocator(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dest := filepath.Join(t.TempDir(), "cbt")
	missing := "file://" + filepath.Join(t.TempDir(), "no-such-repo")

	if err := (GitFetcher{}).Fetch(context.Background(), missing, dest); err == nil {
		t.Fatal("expected error")
	}
	for _, p := range []string{dest, dest + ".tmp"} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s should not exist", p)
		}
	}
}
