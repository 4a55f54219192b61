package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/portal-labs/portals/internal/fsutil"
	"go.uber.org/zap"
)

// ErrEmptySnapshot is returned when a fetch produced no files.
var ErrEmptySnapshot = errors.New("snapshot is empty")

// Fetcher places the latest snapshot of locator at dest. dest must not
// exist beforehand.
type Fetcher interface {
	Fetch(ctx context.Context, locator, dest string) error
}

// New returns the default strategy chain: the snapshot tool given by
// command, then a shallow git clone.
func New(command []string, logger *zap.Logger) *Fallback {
	return &Fallback{
		Fetchers: []Fetcher{&ToolFetcher{Command: command}, GitFetcher{}},
		Logger:   logger,
	}
}

// ToolFetcher runs "<Command...> <locator> <dest>".
type ToolFetcher struct {
	Command []string
}

func (f *ToolFetcher) String() string { return strings.Join(f.Command, " ") }

// Fetch runs the snapshot tool and checks that it produced files.
func (f *ToolFetcher) Fetch(ctx context.Context, locator, dest string) error {
	if len(f.Command) == 0 {
		return errors.New("no snapshot tool configured")
	}
	bin, err := exec.LookPath(f.Command[0])
	if err != nil {
		return fmt.Errorf("%s is required but not found in PATH", f.Command[0])
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}

	args := append(append([]string{}, f.Command[1:]...), locator, dest)
	cmd := exec.CommandContext(ctx, bin, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w\n%s", f.String(), err, strings.TrimSpace(string(output)))
	}

	return requireFiles(dest)
}

// GitFetcher performs a depth-1 clone and strips the history.
type GitFetcher struct{}

func (GitFetcher) String() string { return "git clone --depth=1" }

// Fetch clones into a sibling .tmp directory and renames it into place on
// success.
func (GitFetcher) Fetch(ctx context.Context, locator, dest string) error {
	if _, err := exec.LookPath("git"); err != nil {
		return errors.New("git is required but not found in PATH")
	}

	tmpDir := dest + ".tmp"
	_ = os.RemoveAll(tmpDir)

	if err := os.MkdirAll(filepath.Dir(tmpDir), 0755); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}

	cmd := exec.CommandContext(ctx, "git", "clone", "--depth=1", "--quiet", locator, tmpDir)
	if output, err := cmd.CombinedOutput(); err != nil {
		_ = os.RemoveAll(tmpDir)
		return fmt.Errorf("shallow clone: %w\n%s", err, strings.TrimSpace(string(output)))
	}

	if err := os.RemoveAll(filepath.Join(tmpDir, ".git")); err != nil {
		_ = os.RemoveAll(tmpDir)
		return fmt.Errorf("removing clone history: %w", err)
	}
	if err := requireFiles(tmpDir); err != nil {
		_ = os.RemoveAll(tmpDir)
		return err
	}

	if err := os.Rename(tmpDir, dest); err != nil {
		_ = os.RemoveAll(tmpDir)
		return fmt.Errorf("finalizing clone: %w", err)
	}
	return nil
}

// Fallback tries each fetcher in order until one succeeds. The destination
// is cleared after every failed attempt.
type Fallback struct {
	Fetchers []Fetcher
	Logger   *zap.Logger
}

// Fetch implements Fetcher.
func (f *Fallback) Fetch(ctx context.Context, locator, dest string) error {
	logger := f.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var errs []error
	for _, fetcher := range f.Fetchers {
		err := fetcher.Fetch(ctx, locator, dest)
		if err == nil {
			logger.Debug("snapshot fetched", zap.String("locator", locator), zap.Stringer("strategy", describe(fetcher)))
			return nil
		}

		_ = os.RemoveAll(dest)
		logger.Debug("snapshot strategy failed", zap.Stringer("strategy", describe(fetcher)), zap.Error(err))
		errs = append(errs, err)

		if ctx.Err() != nil {
			break
		}
	}
	return fmt.Errorf("fetching %s: %w", locator, errors.Join(errs...))
}

func requireFiles(dir string) error {
	empty, err := fsutil.IsEmptyDir(dir)
	if err != nil {
		return err
	}
	if empty {
		return fmt.Errorf("%w: %s", ErrEmptySnapshot, dir)
	}
	return nil
}

func describe(f Fetcher) fmt.Stringer {
	if s, ok := f.(fmt.Stringer); ok {
		return s
	}
	return stringer(fmt.Sprintf("%T", f))
}

type stringer string

func (s stringer) String() string { return string(s) }
