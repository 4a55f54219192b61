package cli

import (
	"os"

	"github.com/portal-labs/portals/internal/backup"
	"github.com/portal-labs/portals/internal/config"
	"github.com/portal-labs/portals/internal/lifecycle"
	"github.com/portal-labs/portals/internal/prompt"
	"github.com/portal-labs/portals/internal/registry"
	"github.com/portal-labs/portals/internal/snapshot"
	"github.com/portal-labs/portals/internal/vcs"
	"github.com/portal-labs/portals/internal/workspace"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// newEngine builds a lifecycle engine for the resolved workspace, asking
// questions through confirmer.
func newEngine(cmd *cobra.Command, confirmer prompt.Confirmer) (*lifecycle.Engine, error) {
	s, err := config.Resolve(workspaceFlag)
	if err != nil {
		return nil, err
	}

	return lifecycle.New(lifecycle.Options{
		WorkspaceRoot: s.WorkspaceRoot,
		PortalsDir:    s.PortalsDir,
		Registry:      registry.NewCache(s.CachePath, s.RegistryURL, registry.WithLogger(logger)),
		Fetcher:       snapshot.New(s.SnapshotTool, logger),
		Changes:       vcs.StatusChecker{},
		Installer:     workspace.NpmInstaller{Command: s.InstallCommand},
		Backups:       backup.NewManager(s.BackupsDir),
		Confirmer:     confirmer,
		Logger:        logger,
		Out:           cmd.OutOrStdout(),
	}), nil
}

// terminal is the interactive prompt for cmd. It is nil when stdin is a
// file that is not a terminal, such as a pipe in CI.
func terminal(cmd *cobra.Command) *prompt.Terminal {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		return nil
	}
	return prompt.NewTerminal(in, cmd.OutOrStdout())
}

// confirmer returns the terminal, or default answers without one.
func confirmer(cmd *cobra.Command) prompt.Confirmer {
	if t := terminal(cmd); t != nil {
		return t
	}
	return prompt.Defaults{}
}
