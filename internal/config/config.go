package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/portal-labs/portals/internal/branding"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Configuration keys. Each can also be set through the environment with the
// branding prefix, e.g. PORTALS_REGISTRY_URL.
const (
	KeyWorkspace      = "workspace"
	KeyRegistryURL    = "registry_url"
	KeyPortalsDir     = "portals_dir"
	KeyBackupsDir     = "backups_dir"
	KeySnapshotTool   = "snapshot_tool"
	KeyInstallCommand = "install_command"
)

// Dir returns the path to the user config directory (~/.portals/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the user config file (~/.portals/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// WorkspaceFilePath returns the path of the optional workspace-level config
// file that overrides user settings for one workspace.
func WorkspaceFilePath(root string) string {
	return filepath.Join(root, branding.HomeDir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper to read from the config file and environment.
func Load() {
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.AutomaticEnv()
	setDefaults()

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

func setDefaults() {
	viper.SetDefault(KeyRegistryURL, branding.RegistryURL())
	viper.SetDefault(KeyPortalsDir, "portals")
	viper.SetDefault(KeyBackupsDir, "backups")
	viper.SetDefault(KeySnapshotTool, "npx --yes degit")
	viper.SetDefault(KeyInstallCommand, "npm install")
}

// mergeWorkspace overlays <root>/.portals/config.yaml when present.
func mergeWorkspace(root string) error {
	f, err := os.Open(WorkspaceFilePath(root))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening workspace config: %w", err)
	}
	defer f.Close()

	if err := viper.MergeConfig(f); err != nil {
		return fmt.Errorf("reading workspace config %s: %w", f.Name(), err)
	}
	return nil
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Set writes a config key-value pair and saves the user config file.
func Set(key, value string) error {
	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
