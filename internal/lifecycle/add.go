package lifecycle

import (
	"context"
	"fmt"
	"os"

	"github.com/portal-labs/portals/internal/fsutil"
	"github.com/portal-labs/portals/internal/inventory"
	"github.com/portal-labs/portals/internal/portal"
	"github.com/portal-labs/portals/internal/registry"
	"github.com/portal-labs/portals/internal/workspace"
	"go.uber.org/zap"
)

// AddResult describes a newly installed portal.
type AddResult struct {
	Name    string
	Path    string
	Theme   string
	Locator string
	Version string
	Port    int // 0 when the workspace has no process file
}

// Add installs the registry portal name with theme (default "default").
// Fetching the snapshot, writing metadata and registering the workspace
// entry succeed together or are rolled back. Process registration and
// the dependency install afterwards only warn on failure.
func (e *Engine) Add(ctx context.Context, name, theme string) (*AddResult, error) {
	if err := portal.ValidateName(name); err != nil {
		return nil, err
	}
	if theme == "" {
		theme = portal.DefaultTheme
	}

	target := e.portalPath(name)
	if fsutil.Exists(target) {
		return nil, fmt.Errorf("%w: %s exists at %s; use update instead", ErrAlreadyInstalled, name, target)
	}

	reg, err := e.registry.Fetch(ctx, false)
	if err != nil {
		return nil, err
	}
	desc, err := reg.Lookup(name)
	if err != nil {
		return nil, err
	}
	raw, err := desc.Locator(theme)
	if err != nil {
		return nil, err
	}
	locator := registry.NormalizeLocator(raw)

	e.out.heading("Adding portal %s (theme %s)", name, theme)
	e.logger.Debug("resolved portal", zap.String("portal", name), zap.String("locator", locator))

	uow := newUnitOfWork(e.logger)

	if !fsutil.Exists(e.portalsDir) {
		if err := os.MkdirAll(e.portalsDir, 0755); err != nil {
			return nil, fmt.Errorf("creating portals directory: %w", err)
		}
		uow.onRollback("remove portals directory", func() error {
			_, err := fsutil.RemoveIfEmpty(e.portalsDir)
			return err
		})
	}

	uow.onRollback("remove portal directory", func() error { return os.RemoveAll(target) })
	if err := e.fetcher.Fetch(ctx, locator, target); err != nil {
		e.out.fail("Could not fetch %s", locator)
		return nil, uow.fail(fmt.Errorf("fetching portal %s: %w", name, err))
	}
	e.out.ok("Fetched %s", locator)

	version := desc.Version
	if version == "" {
		version = inventory.Unknown
	}
	meta := &portal.Metadata{
		Name:        name,
		Theme:       theme,
		Repo:        locator,
		Version:     version,
		InstalledAt: e.now().UTC(),
		Source:      portal.SourceRegistry,
	}
	if err := portal.WriteMetadata(target, meta); err != nil {
		return nil, uow.fail(err)
	}
	e.out.ok("Wrote %s", portal.MetadataFile)

	entry := e.manifestEntry(name)
	added, err := e.manifest.Register(entry)
	if err != nil {
		e.out.fail("Could not register %s in %s", entry, workspace.ManifestFile)
		return nil, uow.fail(fmt.Errorf("registering workspace entry: %w", err))
	}
	if added {
		e.out.ok("Added %s to %s workspaces", entry, workspace.ManifestFile)
	}
	uow.commit()

	res := &AddResult{
		Name:    name,
		Path:    target,
		Theme:   theme,
		Locator: locator,
		Version: version,
	}
	res.Port = e.registerProcess(name)
	e.installDependencies(ctx)

	e.out.ok("Portal %s added", name)
	return res, nil
}
