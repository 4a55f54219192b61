// Package branding provides compile-time identity values for the CLI.
//
// Forkers edit branding.yaml in this package before building; Go's
// //go:embed bakes it into the binary.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName      string `yaml:"cli_name"`
	DisplayName  string `yaml:"display_name"`
	Description  string `yaml:"description"`
	HomeDir      string `yaml:"home_dir"`
	EnvPrefix    string `yaml:"env_prefix"`
	RegistryURL  string `yaml:"registry_url"`
	ShorthandURL string `yaml:"shorthand_host"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is missing/empty.
		defaults = brand{
			CLIName:      "portals",
			DisplayName:  "Portals",
			Description:  "Scaffold and manage portal applications in a workspace",
			HomeDir:      ".portals",
			EnvPrefix:    "PORTALS",
			RegistryURL:  "https://raw.githubusercontent.com/portal-labs/registry/main/portals.json",
			ShorthandURL: "https://github.com",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "portals").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name used under $HOME and inside a
// workspace (e.g., ".portals").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "PORTALS").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// RegistryURL returns the default location of the portal registry document.
func RegistryURL() string { load(); return defaults.RegistryURL }

// ShorthandHost returns the base URL that "owner/repo" locators expand against.
func ShorthandHost() string { load(); return strings.TrimSuffix(defaults.ShorthandURL, "/") }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("workspace") → "PORTALS_WORKSPACE".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
