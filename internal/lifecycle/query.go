package lifecycle

import (
	"context"
	"errors"
	"io/fs"

	"github.com/portal-labs/portals/internal/backup"
	"github.com/portal-labs/portals/internal/inventory"
	"github.com/portal-labs/portals/internal/portal"
	"github.com/portal-labs/portals/internal/registry"
	"github.com/portal-labs/portals/internal/workspace"
	"go.uber.org/zap"
)

// Installed lists installed portals in name order.
func (e *Engine) Installed(ctx context.Context) ([]inventory.Record, error) {
	return e.inventory.List(ctx)
}

// Available returns the registry, bypassing a fresh cache when refresh is set.
func (e *Engine) Available(ctx context.Context, refresh bool) (*registry.Registry, error) {
	return e.registry.Fetch(ctx, refresh)
}

// Details is everything known about one installed portal.
type Details struct {
	inventory.Record

	Description     string            `json:"description,omitempty"`
	LatestVersion   string            `json:"latestVersion,omitempty"`
	UpdateAvailable bool              `json:"updateAvailable"`
	PreviousVersion string            `json:"previousVersion,omitempty"`
	BackupLocation  string            `json:"backupLocation,omitempty"`
	InWorkspace     bool              `json:"inWorkspace"`
	Port            int               `json:"port,omitempty"`
	Backups         []backup.Backup   `json:"backups"`
	Themes          []string          `json:"themes,omitempty"`
	Extra           map[string]string `json:"extra,omitempty"`
}

// Details describes the installed portal name. Registry, workspace and
// backup information is filled in when available.
func (e *Engine) Details(ctx context.Context, name string) (*Details, error) {
	if err := portal.ValidateName(name); err != nil {
		return nil, err
	}
	rec, err := e.inventory.Find(ctx, name)
	if err != nil {
		return nil, err
	}

	d := &Details{Record: *rec, Backups: []backup.Backup{}}
	if m := rec.Metadata; m != nil {
		d.PreviousVersion = m.PreviousVersion
		d.BackupLocation = m.BackupLocation
		for k, v := range m.Extra {
			if d.Extra == nil {
				d.Extra = make(map[string]string)
			}
			d.Extra[k] = string(v)
		}
	}

	if reg, err := e.registry.Fetch(ctx, false); err != nil {
		e.logger.Debug("registry unavailable for details", zap.Error(err))
	} else if desc, err := reg.Lookup(name); err == nil {
		d.Description = desc.Description
		d.LatestVersion = desc.Version
		d.Themes = desc.ThemeNames()
		d.UpdateAvailable = rec.Managed && registry.IsUpdateAvailable(rec.Version, desc.Version)
	}

	if covered, err := e.manifest.Covers(e.manifestEntry(name)); err == nil {
		d.InWorkspace = covered
	}

	if f, err := workspace.LoadProcessFile(e.processFilePath()); err == nil {
		if p, ok := f.Lookup(name); ok {
			d.Port = p.Port
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		e.logger.Debug("process file unreadable", zap.Error(err))
	}

	backups, err := e.backups.List(name)
	if err != nil {
		return nil, err
	}
	if backups != nil {
		d.Backups = backups
	}
	return d, nil
}
