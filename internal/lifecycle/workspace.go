package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/portal-labs/portals/internal/workspace"
	"go.uber.org/zap"
)

func notInstalled(name string) error {
	return fmt.Errorf("%w: %s (see `list --installed`)", ErrNotInstalled, name)
}

// registerProcess adds the portal to the process file when one exists. It
// returns the assigned port, or 0 when nothing was registered.
func (e *Engine) registerProcess(name string) int {
	f, err := workspace.LoadProcessFile(e.processFilePath())
	if errors.Is(err, fs.ErrNotExist) {
		e.logger.Debug("no process file, skipping registration")
		return 0
	}
	if err != nil {
		e.out.warn("Could not register %s in %s: %v", name, workspace.ProcessFileName, err)
		return 0
	}

	p, added := f.Register(name, "./"+e.manifestEntry(name))
	if !added {
		e.out.ok("Already in %s (port %d)", workspace.ProcessFileName, p.Port)
		return p.Port
	}
	if err := f.Save(); err != nil {
		e.out.warn("Could not update %s: %v", workspace.ProcessFileName, err)
		return 0
	}
	e.out.ok("Registered in %s on port %d", workspace.ProcessFileName, p.Port)
	return p.Port
}

func (e *Engine) deregisterProcess(name string) {
	f, err := workspace.LoadProcessFile(e.processFilePath())
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err != nil {
		e.out.warn("Could not read %s: %v", workspace.ProcessFileName, err)
		return
	}
	if !f.Deregister(name) {
		return
	}
	if err := f.Save(); err != nil {
		e.out.warn("Could not update %s: %v", workspace.ProcessFileName, err)
		return
	}
	e.out.ok("Removed from %s", workspace.ProcessFileName)
}

func (e *Engine) deregisterManifest(name string) {
	entry := e.manifestEntry(name)
	removed, err := e.manifest.Deregister(entry)
	if err != nil {
		e.out.warn("Could not update %s: %v", workspace.ManifestFile, err)
		return
	}
	if removed {
		e.out.ok("Removed %s from %s workspaces", entry, workspace.ManifestFile)
	}
}

// installDependencies runs the workspace install; failure is only a warning.
func (e *Engine) installDependencies(ctx context.Context) {
	e.logger.Debug("installing workspace dependencies", zap.String("dir", e.root))
	if err := e.installer.Install(ctx, e.root); err != nil {
		e.out.warn("Dependency install failed, run it manually: %v", err)
		return
	}
	e.out.ok("Dependencies installed")
}

// hasChanges asks the change detector, treating its errors as "no changes"
// after logging them.
func (e *Engine) hasChanges(ctx context.Context, dir string) bool {
	dirty, err := e.changes.HasUncommittedChanges(ctx, dir)
	if err != nil {
		e.logger.Warn("could not check for uncommitted changes", zap.String("dir", dir), zap.Error(err))
		return false
	}
	return dirty
}
