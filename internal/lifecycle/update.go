package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/portal-labs/portals/internal/fsutil"
	"github.com/portal-labs/portals/internal/portal"
	"github.com/portal-labs/portals/internal/workspace"
	"go.uber.org/zap"
)

// UpdateResult describes a completed update.
type UpdateResult struct {
	Name                string
	BackupPath          string
	PreviousVersion     string
	Version             string
	Replaced            bool // force: live tree replaced rather than merged
	FilesCopied         int  // merge only
	DependenciesChanged bool
}

// Update refreshes an installed portal from its recorded source. A backup is
// always taken first. With force the live directory is replaced by the new
// snapshot; otherwise snapshot files are copied over it and files that only
// exist locally are kept. If fetching, applying or recording the update
// fails, the portal is restored from the backup.
func (e *Engine) Update(ctx context.Context, name string, force bool) (*UpdateResult, error) {
	target, err := e.installedDir(name)
	if err != nil {
		return nil, err
	}

	meta, err := portal.ReadMetadata(target)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s has no %s; remove it and add it again", ErrNotManaged, name, portal.MetadataFile)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotManaged, err)
	}
	if meta.Repo == "" {
		return nil, fmt.Errorf("%w: %s records no source repository", ErrNotManaged, name)
	}

	if e.hasChanges(ctx, target) {
		if !force {
			return nil, fmt.Errorf("%w in %s: commit or stash them, or rerun with --force", ErrUncommittedChanges, target)
		}
		e.out.warn("%s has uncommitted changes; continuing because of --force", name)
	}

	e.out.heading("Updating portal %s", name)
	latest := e.latestVersion(ctx, name)

	depsBefore, depsErr := workspace.ReadDependencies(target)

	b, err := e.backups.Create(target)
	if err != nil {
		e.out.fail("Backup failed")
		return nil, fmt.Errorf("%w: %v", ErrBackupFailed, err)
	}
	e.out.ok("Backup created at %s", b.Path)

	uow := newUnitOfWork(e.logger)
	uow.onRollback("restore backup", func() error {
		return e.backups.Restore(b.Path, target)
	})

	res := &UpdateResult{
		Name:            name,
		BackupPath:      b.Path,
		PreviousVersion: meta.Version,
		Replaced:        force,
	}

	if err := e.applyUpdate(ctx, target, meta, force, res); err != nil {
		return nil, e.rollbackUpdate(uow, name, b.Path, err)
	}

	meta.RecordUpdate(e.now().UTC(), latest, b.Path)
	if err := portal.WriteMetadata(target, meta); err != nil {
		return nil, e.rollbackUpdate(uow, name, b.Path, err)
	}
	uow.commit()
	res.Version = meta.Version

	depsAfter, err := workspace.ReadDependencies(target)
	res.DependenciesChanged = depsErr != nil || err != nil || !workspace.DependenciesEqual(depsBefore, depsAfter)
	if res.DependenciesChanged {
		e.out.ok("Dependency declarations changed")
		e.installDependencies(ctx)
	}

	e.out.ok("Portal %s updated (%s → %s)", name, res.PreviousVersion, res.Version)
	return res, nil
}

func (e *Engine) rollbackUpdate(uow *unitOfWork, name, backupPath string, cause error) error {
	e.out.fail("Update failed: %v", cause)
	err := fmt.Errorf("updating %s (backup at %s): %w", name, backupPath, cause)
	if rerr := uow.rollback(); rerr != nil {
		e.out.fail("Could not restore %s; recover it manually from %s", name, backupPath)
		return errors.Join(err, fmt.Errorf("rollback incomplete: %w", rerr))
	}
	e.out.ok("Restored %s from backup", name)
	return err
}

// applyUpdate fetches a fresh snapshot into the staging area and applies it
// to target.
func (e *Engine) applyUpdate(ctx context.Context, target string, meta *portal.Metadata, force bool, res *UpdateResult) error {
	if err := os.MkdirAll(e.stagingDir, 0755); err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	tmp, err := os.MkdirTemp(e.stagingDir, meta.Name+"-")
	if err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	fresh := filepath.Join(tmp, meta.Name)
	if err := e.fetcher.Fetch(ctx, meta.Repo, fresh); err != nil {
		return fmt.Errorf("fetching %s: %w", meta.Repo, err)
	}
	empty, err := fsutil.IsEmptyDir(fresh)
	if err != nil {
		return err
	}
	if empty {
		return fmt.Errorf("fetching %s: %w", meta.Repo, ErrEmptySnapshot)
	}
	e.out.ok("Fetched %s", meta.Repo)

	if force {
		if err := os.RemoveAll(target); err != nil {
			return fmt.Errorf("removing old portal: %w", err)
		}
		if err := fsutil.Move(fresh, target); err != nil {
			return fmt.Errorf("moving snapshot into place: %w", err)
		}
		e.out.ok("Replaced portal files")
		return nil
	}

	n, err := fsutil.MergeDir(fresh, target, fsutil.SkipRootNames(portal.MetadataFile))
	if err != nil {
		return fmt.Errorf("merging snapshot: %w", err)
	}
	res.FilesCopied = n
	e.out.ok("Merged %d files", n)
	return nil
}

// latestVersion returns the registry's current version for name, or "" when
// the registry is unavailable or no longer lists it.
func (e *Engine) latestVersion(ctx context.Context, name string) string {
	reg, err := e.registry.Fetch(ctx, false)
	if err != nil {
		e.logger.Debug("registry unavailable, keeping recorded version", zap.Error(err))
		return ""
	}
	desc, err := reg.Lookup(name)
	if err != nil {
		e.logger.Debug("portal no longer in registry", zap.String("portal", name))
		return ""
	}
	return desc.Version
}

// UpdateAllResult summarizes UpdateAll.
type UpdateAllResult struct {
	Updated []string
	Skipped []string // not managed
	Failed  map[string]error
}

// UpdateAll updates every managed portal one at a time, continuing past
// failures. The returned error counts the failures.
func (e *Engine) UpdateAll(ctx context.Context, force bool) (*UpdateAllResult, error) {
	records, err := e.inventory.List(ctx)
	if err != nil {
		return nil, err
	}

	res := &UpdateAllResult{Failed: make(map[string]error)}
	attempted := 0
	for _, rec := range records {
		if !rec.Managed {
			res.Skipped = append(res.Skipped, rec.Name)
			e.out.warn("Skipping %s: not managed", rec.Name)
			continue
		}
		if ctx.Err() != nil {
			return res, ctx.Err()
		}

		attempted++
		if _, err := e.Update(ctx, rec.Name, force); err != nil {
			res.Failed[rec.Name] = err
			e.out.fail("%s: %v", rec.Name, err)
			continue
		}
		res.Updated = append(res.Updated, rec.Name)
	}

	if attempted == 0 {
		e.out.ok("No managed portals to update")
	}
	if len(res.Failed) > 0 {
		return res, fmt.Errorf("%d of %d portals failed to update", len(res.Failed), attempted)
	}
	return res, nil
}
