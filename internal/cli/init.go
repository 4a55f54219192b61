package cli

import (
	"fmt"
	"path/filepath"

	"github.com/portal-labs/portals/internal/branding"
	"github.com/portal-labs/portals/internal/scaffold"
	"github.com/spf13/cobra"
)

var initName string

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create a new portal workspace",
	Long: `Create a workspace with a package.json declaring workspaces, an empty
ecosystem.config.js process file, and the portals and backups directories.
The directory defaults to the current one and must not already contain a
package.json.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initName, "name", "", "Package name (default: directory name)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", dir, err)
	}

	result, err := scaffold.InitWorkspace(abs, scaffold.NewWorkspaceData(abs, initName))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created workspace in %s\n", result.Dir)
	for _, f := range result.Files {
		fmt.Fprintf(out, "  %s\n", f)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(out, "  ⚠ %s\n", w)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next steps:")
	if len(args) == 1 {
		fmt.Fprintf(out, "  cd %s\n", dir)
	}
	fmt.Fprintf(out, "  %s list --available\n", branding.CLIName())
	fmt.Fprintf(out, "  %s add <name>\n", branding.CLIName())
	return nil
}
