package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/portal-labs/portals/internal/branding"
	"github.com/portal-labs/portals/internal/config"
	"github.com/portal-labs/portals/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	workspaceFlag string
	verbose       bool

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` installs, updates and removes portal applications in a workspace.
Portals come from a JSON registry; each one is fetched as a clean snapshot of its
source repository and registered in package.json workspaces and the process file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.Load()
		logger = logging.ForVerbosity(verbose)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&workspaceFlag, "workspace", "", "Workspace root (default: nearest directory whose package.json declares workspaces)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print debug logs to stderr")
}

// Execute runs the root command with build info injected via ldflags. The
// command context is cancelled on SIGINT or SIGTERM.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
