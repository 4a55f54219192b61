package branding

import "testing"

func TestEmbeddedValues(t *testing.T) {
	if got := CLIName(); got != "portals" {
		t.Errorf("CLIName() = %q, want %q", got, "portals")
	}
	if got := HomeDir(); got != ".portals" {
		t.Errorf("HomeDir() = %q, want %q", got, ".portals")
	}
	if got := ShorthandHost(); got != "https://github.com" {
		t.Errorf("ShorthandHost() = %q, want %q", got, "https://github.com")
	}
}

func TestEnvVar(t *testing.T) {
	if got := EnvVar("workspace"); got != "PORTALS_WORKSPACE" {
		t.Errorf("EnvVar(workspace) = %q, want %q", got, "PORTALS_WORKSPACE")
	}
}
