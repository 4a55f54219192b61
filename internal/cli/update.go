package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var updateForce bool

var updateCmd = &cobra.Command{
	Use:   "update <name|all>",
	Short: "Update installed portals from their source",
	Long: `Back up a portal, fetch a fresh snapshot of its recorded source and apply it.

By default new files are merged over the portal and local-only files are kept.
With --force the portal directory is replaced by the snapshot, and uncommitted
changes do not stop the update. If anything fails the backup is restored.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().BoolVarP(&updateForce, "force", "f", false, "Replace the portal instead of merging, even with uncommitted changes")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	engine, err := newEngine(cmd, confirmer(cmd))
	if err != nil {
		return err
	}

	if args[0] != "all" {
		_, err := engine.Update(cmd.Context(), args[0], updateForce)
		return err
	}

	res, err := engine.UpdateAll(cmd.Context(), updateForce)
	if res != nil {
		summary := []string{fmt.Sprintf("%d updated", len(res.Updated))}
		if len(res.Failed) > 0 {
			summary = append(summary, fmt.Sprintf("%d failed", len(res.Failed)))
		}
		if len(res.Skipped) > 0 {
			summary = append(summary, fmt.Sprintf("%d skipped", len(res.Skipped)))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", strings.Join(summary, ", "))
	}
	return err
}
