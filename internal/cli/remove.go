package cli

import (
	"errors"
	"fmt"

	"github.com/portal-labs/portals/internal/lifecycle"
	"github.com/portal-labs/portals/internal/prompt"
	"github.com/spf13/cobra"
)

var (
	removeForce       bool
	removeNoBackup    bool
	removeInteractive bool
	removeList        bool
)

var removeCmd = &cobra.Command{
	Use:     "remove [name]",
	Aliases: []string{"rm", "uninstall"},
	Short:   "Remove an installed portal",
	Long: `Delete a portal directory and drop it from package.json workspaces and the
process file. A backup is offered first unless --no-backup is given; with
--force nothing is asked and the defaults apply.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRemove,
}

func init() {
	removeCmd.Flags().BoolVarP(&removeForce, "force", "f", false, "Do not ask for confirmation")
	removeCmd.Flags().BoolVarP(&removeNoBackup, "no-backup", "n", false, "Do not back up the portal before deleting it")
	removeCmd.Flags().BoolVarP(&removeInteractive, "interactive", "i", false, "Choose the portal from a list")
	removeCmd.Flags().BoolVarP(&removeList, "list", "l", false, "List installed portals and exit")
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	term := terminal(cmd)
	var confirm prompt.Confirmer = prompt.Defaults{}
	if term != nil {
		confirm = term
	}

	engine, err := newEngine(cmd, confirm)
	if err != nil {
		return err
	}

	if removeList {
		records, err := engine.Installed(cmd.Context())
		if err != nil {
			return err
		}
		return printInstalledTable(cmd, records, nil)
	}

	var name string
	if len(args) == 1 {
		name = args[0]
	}
	if name == "" || removeInteractive {
		if term == nil {
			return errors.New("a portal name is required when input is not interactive")
		}
		records, err := engine.Installed(cmd.Context())
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No portals installed.")
			return nil
		}
		names := make([]string, len(records))
		for i, r := range records {
			names[i] = r.Name
		}
		idx, err := term.Select("Select portal to remove:", names)
		if err != nil {
			return err
		}
		name = names[idx]
	}

	res, err := engine.Remove(cmd.Context(), name, lifecycle.RemoveOptions{
		Force:  removeForce,
		Backup: !removeNoBackup,
	})
	if err != nil {
		return err
	}
	if res.Cancelled {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing removed. Use --force to skip confirmation.")
		return nil
	}
	if res.BackupPath != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "\nBackup kept at %s\n", res.BackupPath)
	}
	return nil
}
