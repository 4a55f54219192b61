// Package cli defines the Cobra command tree for the portals CLI. Each file
// registers one top-level command (add, update, remove, list, init, doctor,
// ...) with the root command. Commands delegate the work to the lifecycle
// engine and the scaffold package.
package cli
