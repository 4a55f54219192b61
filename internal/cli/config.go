package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/portal-labs/portals/internal/branding"
	"github.com/portal-labs/portals/internal/config"
	"github.com/spf13/cobra"
)

var configKeys = []string{
	config.KeyRegistryURL,
	config.KeyPortalsDir,
	config.KeyBackupsDir,
	config.KeySnapshotTool,
	config.KeyInstallCommand,
	config.KeyWorkspace,
}

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage user settings",
	Long: `Read and write settings stored at ~/` + branding.HomeDir() + `/config.yaml.

Keys: ` + strings.Join(configKeys, ", ") + `.
Each key can be overridden with an environment variable such as ` + branding.EnvVar(config.KeyRegistryURL) + `,
and per workspace in <workspace>/` + branding.HomeDir() + `/config.yaml.`,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := checkConfigKey(key); err != nil {
			return err
		}
		if err := config.Set(key, value); err != nil {
			return fmt.Errorf("setting config key %q: %w", key, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkConfigKey(args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), config.Get(args[0]))
		return nil
	},
}

func checkConfigKey(key string) error {
	if !slices.Contains(configKeys, key) {
		return fmt.Errorf("unknown config key %q; valid keys: %s", key, strings.Join(configKeys, ", "))
	}
	return nil
}
