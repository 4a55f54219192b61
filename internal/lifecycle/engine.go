package lifecycle

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/portal-labs/portals/internal/backup"
	"github.com/portal-labs/portals/internal/branding"
	"github.com/portal-labs/portals/internal/inventory"
	"github.com/portal-labs/portals/internal/portal"
	"github.com/portal-labs/portals/internal/prompt"
	"github.com/portal-labs/portals/internal/registry"
	"github.com/portal-labs/portals/internal/snapshot"
	"github.com/portal-labs/portals/internal/vcs"
	"github.com/portal-labs/portals/internal/workspace"
	"go.uber.org/zap"
)

// RegistrySource supplies the portal catalog. *registry.Cache implements it.
type RegistrySource interface {
	Fetch(ctx context.Context, force bool) (*registry.Registry, error)
}

// ChangeDetector reports uncommitted version-control changes in a directory.
type ChangeDetector interface {
	HasUncommittedChanges(ctx context.Context, dir string) (bool, error)
}

// DependencyInstaller installs the workspace's dependencies.
type DependencyInstaller interface {
	Install(ctx context.Context, dir string) error
}

// Options wires an Engine. WorkspaceRoot, Registry and Fetcher are required;
// everything else has a default.
type Options struct {
	WorkspaceRoot string
	PortalsDir    string // default <root>/portals
	StagingDir    string // default <root>/.portals/staging

	Registry  RegistrySource
	Fetcher   snapshot.Fetcher
	Changes   ChangeDetector
	Installer DependencyInstaller
	Backups   *backup.Manager // default under <root>/backups
	Confirmer prompt.Confirmer

	Logger *zap.Logger
	Out    io.Writer
	Now    func() time.Time
}

// Engine runs portal lifecycle operations against one workspace.
type Engine struct {
	root       string
	portalsDir string
	stagingDir string

	registry  RegistrySource
	fetcher   snapshot.Fetcher
	changes   ChangeDetector
	installer DependencyInstaller
	backups   *backup.Manager
	confirmer prompt.Confirmer
	inventory *inventory.Inventory
	manifest  *workspace.Manifest

	logger *zap.Logger
	out    reporter
	now    func() time.Time
}

// New returns an Engine for opts.
func New(opts Options) *Engine {
	e := &Engine{
		root:       opts.WorkspaceRoot,
		portalsDir: opts.PortalsDir,
		stagingDir: opts.StagingDir,
		registry:   opts.Registry,
		fetcher:    opts.Fetcher,
		changes:    opts.Changes,
		installer:  opts.Installer,
		backups:    opts.Backups,
		confirmer:  opts.Confirmer,
		logger:     opts.Logger,
		out:        reporter{w: opts.Out},
		now:        opts.Now,
	}

	if e.portalsDir == "" {
		e.portalsDir = filepath.Join(e.root, "portals")
	}
	if e.stagingDir == "" {
		e.stagingDir = filepath.Join(e.root, branding.HomeDir(), "staging")
	}
	if e.changes == nil {
		e.changes = vcs.StatusChecker{}
	}
	if e.installer == nil {
		e.installer = workspace.NpmInstaller{}
	}
	if e.backups == nil {
		e.backups = backup.NewManager(filepath.Join(e.root, "backups"))
	}
	if e.confirmer == nil {
		e.confirmer = prompt.Defaults{}
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.out.w == nil {
		e.out.w = io.Discard
	}
	if e.now == nil {
		e.now = time.Now
	}

	e.inventory = inventory.New(e.portalsDir)
	e.manifest = workspace.OpenManifest(filepath.Join(e.root, workspace.ManifestFile))
	return e
}

// WorkspaceRoot returns the workspace root directory.
func (e *Engine) WorkspaceRoot() string { return e.root }

// PortalsDir returns the directory holding installed portals.
func (e *Engine) PortalsDir() string { return e.portalsDir }

func (e *Engine) portalPath(name string) string {
	return filepath.Join(e.portalsDir, name)
}

// manifestEntry is the portal's path as listed in package.json workspaces.
func (e *Engine) manifestEntry(name string) string {
	rel, err := filepath.Rel(e.root, e.portalPath(name))
	if err != nil {
		return filepath.ToSlash(e.portalPath(name))
	}
	return filepath.ToSlash(rel)
}

func (e *Engine) processFilePath() string {
	return filepath.Join(e.root, workspace.ProcessFileName)
}

// installedDir reports whether name has a portal directory, after checking
// the name is valid.
func (e *Engine) installedDir(name string) (string, error) {
	if err := portal.ValidateName(name); err != nil {
		return "", err
	}
	dir := e.portalPath(name)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", notInstalled(name)
	}
	return dir, nil
}
