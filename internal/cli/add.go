package cli

import (
	"fmt"

	"github.com/portal-labs/portals/internal/branding"
	"github.com/portal-labs/portals/internal/portal"
	"github.com/spf13/cobra"
)

var addTheme string

var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Install a portal from the registry",
	Long: `Fetch a clean snapshot of a registry portal into the portals directory, record
its metadata, and register it in package.json workspaces and the process file.`,
	Example: `  portals add cbt
  portals add member --theme dark`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVarP(&addTheme, "theme", "t", portal.DefaultTheme, "Theme variant to install")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	engine, err := newEngine(cmd, confirmer(cmd))
	if err != nil {
		return err
	}

	res, err := engine.Add(cmd.Context(), args[0], addTheme)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next steps:")
	if res.Port > 0 {
		fmt.Fprintf(out, "  1. Start it with the process manager: it will listen on port %d\n", res.Port)
	} else {
		fmt.Fprintf(out, "  1. Start it from %s\n", res.Path)
	}
	fmt.Fprintf(out, "  2. Pull future releases with '%s update %s'\n", branding.CLIName(), res.Name)
	return nil
}
