// Package logging builds the zap logger shared by the CLI and the packages it
// wires together. Diagnostics go to stderr so command output stays clean.
package logging
