package cli

import (
	"fmt"
	"slices"

	"github.com/portal-labs/portals/internal/branding"
	"github.com/portal-labs/portals/internal/config"
	"github.com/portal-labs/portals/internal/lifecycle"
	"github.com/portal-labs/portals/internal/prompt"
	"github.com/spf13/cobra"
)

var doctorFix bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the workspace for drift between portals and workspace files",
	Long: `Check that every installed portal is listed in package.json workspaces and
ecosystem.config.js, that nothing is listed for portals that are gone, and that
the snapshot, git and install tools are on PATH. --fix repairs the workspace
files.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Register missing entries and drop stale ones")
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	s, err := config.Resolve(workspaceFlag)
	if err != nil {
		return err
	}
	engine, err := newEngine(cmd, prompt.Defaults{})
	if err != nil {
		return err
	}

	var tools []string
	for _, command := range [][]string{s.SnapshotTool, {"git"}, s.InstallCommand} {
		if len(command) > 0 && !slices.Contains(tools, command[0]) {
			tools = append(tools, command[0])
		}
	}

	report, err := engine.Check(cmd.Context(), lifecycle.CheckOptions{Fix: doctorFix, Tools: tools})
	if err != nil {
		return err
	}
	if n := report.Problems(); n > 0 {
		if doctorFix {
			return fmt.Errorf("%d problems could not be fixed", n)
		}
		return fmt.Errorf("%d problems found; run `%s doctor --fix` to repair", n, branding.CLIName())
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Workspace is healthy.")
	return nil
}
