package lifecycle

import (
	"context"
	"fmt"
	"os"

	"github.com/portal-labs/portals/internal/fsutil"
)

// RemoveOptions controls Remove.
type RemoveOptions struct {
	// Force skips every confirmation. Questions take their default answer.
	Force bool
	// Backup requests a backup before deletion.
	Backup bool
}

// RemoveResult describes the outcome of Remove.
type RemoveResult struct {
	Name       string
	BackupPath string // empty when no backup was made
	Cancelled  bool   // the operator declined; nothing changed
}

// Remove deletes an installed portal and drops it from the workspace files.
// Unless opts.Force is set the operator confirms the removal and, when
// opts.Backup is set, the backup. A failed backup stops the removal unless
// the operator explicitly accepts losing the data.
func (e *Engine) Remove(ctx context.Context, name string, opts RemoveOptions) (*RemoveResult, error) {
	target, err := e.installedDir(name)
	if err != nil {
		return nil, err
	}
	res := &RemoveResult{Name: name}

	if e.hasChanges(ctx, target) {
		e.out.warn("%s has uncommitted changes", name)
	}

	wantBackup := opts.Backup
	if !opts.Force {
		ok, err := e.confirmer.Confirm(fmt.Sprintf("Remove portal %s at %s?", name, target), false)
		if err != nil {
			return nil, err
		}
		if !ok {
			res.Cancelled = true
			e.out.warn("Removal of %s cancelled", name)
			return res, nil
		}
		if wantBackup {
			if wantBackup, err = e.confirmer.Confirm("Create a backup first?", true); err != nil {
				return nil, err
			}
		}
	}

	e.out.heading("Removing portal %s", name)

	if wantBackup {
		b, berr := e.backups.Create(target)
		if berr != nil {
			e.out.fail("Backup failed: %v", berr)
			proceed := false
			if !opts.Force {
				if proceed, err = e.confirmer.Confirm("Remove without a backup?", false); err != nil {
					return nil, err
				}
			}
			if !proceed {
				return nil, fmt.Errorf("%w: %s was not removed: %w: %v", ErrAborted, name, ErrBackupFailed, berr)
			}
			e.out.warn("Continuing without a backup")
		} else {
			res.BackupPath = b.Path
			e.out.ok("Backup created at %s", b.Path)
		}
	}

	e.deregisterManifest(name)
	e.deregisterProcess(name)

	if err := os.RemoveAll(target); err != nil {
		e.out.fail("Could not delete %s", target)
		if res.BackupPath != "" {
			return nil, fmt.Errorf("deleting %s (backup at %s): %w", target, res.BackupPath, err)
		}
		return nil, fmt.Errorf("deleting %s: %w", target, err)
	}
	e.out.ok("Deleted %s", target)

	if removed, err := fsutil.RemoveIfEmpty(e.portalsDir); err == nil && removed {
		e.logger.Debug("removed empty portals directory")
	}

	e.out.ok("Portal %s removed", name)
	return res, nil
}
