package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Repository runs git commands against one directory.
type Repository struct {
	dir string
}

// NewRepository returns a Repository targeting dir.
func NewRepository(dir string) *Repository {
	return &Repository{dir: dir}
}

// Dir returns the repository directory.
func (r *Repository) Dir() string { return r.dir }

// Run executes a git command targeting this repository and returns stdout.
// Stderr is included in the error on failure.
func (r *Repository) Run(ctx context.Context, args ...string) (string, error) {
	fullArgs := append([]string{"-C", r.dir}, args...)
	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, "git", fullArgs...)
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return "", fmt.Errorf("git %s in %s: %w (stderr: %s)",
			strings.Join(args, " "), r.dir, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// IsWorkTree reports whether the directory is inside a git working tree.
func (r *Repository) IsWorkTree(ctx context.Context) bool {
	out, err := r.Run(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(out) == "true"
}

// IsTopLevel reports whether the directory is the root of its own work
// tree, rather than a subdirectory of an enclosing repository.
func (r *Repository) IsTopLevel(ctx context.Context) bool {
	out, err := r.Run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return false
	}
	return samePath(strings.TrimSpace(out), r.dir)
}

func samePath(a, b string) bool {
	ra, errA := filepath.EvalSymlinks(a)
	rb, errB := filepath.EvalSymlinks(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return ra == rb
}

// StatusChecker detects uncommitted changes with git status.
type StatusChecker struct{}

// HasUncommittedChanges reports whether dir, as a checkout of its own, has
// modified, staged or untracked files. A directory that is only part of an
// enclosing repository is not a checkout and reports false, as do
// directories outside a work tree and hosts without git.
func (StatusChecker) HasUncommittedChanges(ctx context.Context, dir string) (bool, error) {
	if _, err := exec.LookPath("git"); err != nil {
		return false, nil
	}

	repo := NewRepository(dir)
	if !repo.IsWorkTree(ctx) || !repo.IsTopLevel(ctx) {
		return false, nil
	}

	out, err := repo.Run(ctx, "status", "--porcelain", "--", ".")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}
