package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/portal-labs/portals/internal/fsutil"
)

// InfoFile is the sidecar written into every backup directory.
const InfoFile = ".backup-info.json"

const timestampLayout = "20060102-150405"

// Info is the content of InfoFile.
type Info struct {
	Portal    string    `json:"portal"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
}

// Backup is one backup directory.
type Backup struct {
	Path string `json:"path"`
	Info
}

// Manager creates and restores backups under a root directory.
type Manager struct {
	root   string
	now    func() time.Time
	suffix func() string
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the clock used for backup names and sidecars.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithSuffix overrides the random suffix generator.
func WithSuffix(fn func() string) Option {
	return func(m *Manager) { m.suffix = fn }
}

// NewManager returns a Manager storing backups under root.
func NewManager(root string, opts ...Option) *Manager {
	m := &Manager{
		root:   root,
		now:    time.Now,
		suffix: randomSuffix,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Root returns the backups root directory.
func (m *Manager) Root() string { return m.root }

// Create copies portalPath into a new backup directory and returns it. It
// never reuses an existing directory.
func (m *Manager) Create(portalPath string) (*Backup, error) {
	info, err := os.Stat(portalPath)
	if err != nil {
		return nil, fmt.Errorf("backing up %s: %w", portalPath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("backing up %s: not a directory", portalPath)
	}

	portalName := filepath.Base(portalPath)
	created := m.now().UTC()
	dst := filepath.Join(m.root, fmt.Sprintf("%s-%s-%s", portalName, created.Format(timestampLayout), m.suffix()))

	if err := os.MkdirAll(m.root, 0755); err != nil {
		return nil, fmt.Errorf("creating backups directory: %w", err)
	}
	// Mkdir (not MkdirAll) fails if the name is already taken.
	if err := os.Mkdir(dst, info.Mode().Perm()); err != nil {
		return nil, fmt.Errorf("creating backup directory: %w", err)
	}

	if err := fsutil.CopyDir(portalPath, dst, nil); err != nil {
		_ = os.RemoveAll(dst)
		return nil, fmt.Errorf("copying portal to backup: %w", err)
	}

	b := &Backup{
		Path: dst,
		Info: Info{Portal: portalName, Source: portalPath, CreatedAt: created},
	}
	if err := writeInfo(dst, &b.Info); err != nil {
		_ = os.RemoveAll(dst)
		return nil, err
	}

	empty, err := fsutil.IsEmptyDir(dst)
	if err != nil || empty {
		_ = os.RemoveAll(dst)
		return nil, fmt.Errorf("backup %s could not be verified", dst)
	}

	return b, nil
}

// Restore replaces targetPath with the contents of backupPath. The backup is
// first copied to a staging directory beside the target, so a failed copy
// leaves the target untouched. The backup itself is kept.
func (m *Manager) Restore(backupPath, targetPath string) error {
	info, err := os.Stat(backupPath)
	if err != nil {
		return fmt.Errorf("restoring from %s: %w", backupPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("restoring from %s: not a directory", backupPath)
	}

	staging := fmt.Sprintf("%s.restore-%s", targetPath, m.suffix())
	_ = os.RemoveAll(staging)

	if err := fsutil.CopyDir(backupPath, staging, fsutil.SkipRootNames(InfoFile)); err != nil {
		_ = os.RemoveAll(staging)
		return fmt.Errorf("staging restore: %w", err)
	}

	if err := os.RemoveAll(targetPath); err != nil {
		_ = os.RemoveAll(staging)
		return fmt.Errorf("clearing %s for restore: %w", targetPath, err)
	}

	if err := os.Rename(staging, targetPath); err != nil {
		return fmt.Errorf("restoring %s (staged copy left at %s): %w", targetPath, staging, err)
	}
	return nil
}

// List returns the backups of one portal, newest first. An empty name lists
// every backup. Directories without a readable sidecar are skipped.
func (m *Manager) List(portalName string) ([]Backup, error) {
	entries, err := os.ReadDir(m.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading backups directory: %w", err)
	}

	var backups []Backup
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(m.root, e.Name())
		info, err := readInfo(dir)
		if err != nil {
			continue
		}
		if portalName != "" && info.Portal != portalName {
			continue
		}
		backups = append(backups, Backup{Path: dir, Info: *info})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

func writeInfo(dir string, info *Info) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling backup info: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, InfoFile), append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing backup info: %w", err)
	}
	return nil
}

func readInfo(dir string) (*Info, error) {
	data, err := os.ReadFile(filepath.Join(dir, InfoFile))
	if err != nil {
		return nil, err
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
