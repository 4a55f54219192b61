package inventory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/portal-labs/portals/internal/fsutil"
	"github.com/portal-labs/portals/internal/portal"
)

// ErrNotFound is returned by Find when no portal directory has that name.
var ErrNotFound = errors.New("portal not installed")

// Unknown is the placeholder for fields of portals without metadata.
const Unknown = "unknown"

// Record describes one installed portal.
type Record struct {
	Name        string     `json:"name"`
	Path        string     `json:"path"`
	Theme       string     `json:"theme"`
	Repo        string     `json:"repo"`
	Version     string     `json:"version"`
	Managed     bool       `json:"managed"`
	InstalledAt time.Time  `json:"installedAt,omitzero"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
	Size        int64      `json:"size"`
	SizeHuman   string     `json:"sizeHuman"`
	Problem     string     `json:"problem,omitempty"` // unreadable metadata

	Metadata *portal.Metadata `json:"-"`
}

// Inventory lists portals under a portals root directory.
type Inventory struct {
	root string
}

// New returns an Inventory over root (e.g. <workspace>/portals).
func New(root string) *Inventory {
	return &Inventory{root: root}
}

// Root returns the portals root directory.
func (i *Inventory) Root() string { return i.root }

// All yields a Record per child directory of the root, in name order. A
// missing root yields nothing. Each call rescans the filesystem.
func (i *Inventory) All(ctx context.Context) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		names, err := i.dirNames()
		if err != nil {
			yield(Record{}, err)
			return
		}

		for _, name := range names {
			if ctx.Err() != nil {
				yield(Record{}, ctx.Err())
				return
			}
			rec, err := i.record(ctx, name)
			if !yield(rec, err) {
				return
			}
		}
	}
}

// List collects All into a slice, stopping at the first error.
func (i *Inventory) List(ctx context.Context) ([]Record, error) {
	var records []Record
	for rec, err := range i.All(ctx) {
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Find returns the record for the portal named exactly name.
func (i *Inventory) Find(ctx context.Context, name string) (*Record, error) {
	info, err := os.Stat(filepath.Join(i.root, name))
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	rec, err := i.record(ctx, name)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (i *Inventory) dirNames() ([]string, error) {
	entries, err := os.ReadDir(i.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading portals directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (i *Inventory) record(ctx context.Context, name string) (Record, error) {
	dir := filepath.Join(i.root, name)
	rec := Record{
		Name:    name,
		Path:    dir,
		Theme:   portal.DefaultTheme,
		Repo:    Unknown,
		Version: Unknown,
	}

	meta, err := portal.ReadMetadata(dir)
	switch {
	case err == nil:
		rec.Managed = true
		rec.Metadata = meta
		rec.InstalledAt = meta.InstalledAt
		rec.UpdatedAt = meta.UpdatedAt
		rec.Theme = orDefault(meta.Theme, portal.DefaultTheme)
		rec.Repo = orDefault(meta.Repo, Unknown)
		rec.Version = orDefault(meta.Version, Unknown)
	case errors.Is(err, fs.ErrNotExist):
		// Unmanaged directory: keep the placeholders.
	default:
		rec.Problem = err.Error()
	}

	size, err := fsutil.DirSize(ctx, dir)
	if err != nil {
		return Record{}, fmt.Errorf("sizing portal %s: %w", name, err)
	}
	rec.Size = size
	rec.SizeHuman = fsutil.HumanSize(size)

	return rec, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
