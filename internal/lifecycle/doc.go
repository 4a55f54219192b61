// Package lifecycle adds, updates and removes portals in a workspace.
//
// An Engine coordinates the other packages: it resolves portals through the
// registry cache, fetches snapshots, writes portal metadata, keeps the
// workspace manifest and process file in step, and takes backups before
// anything destructive. Steps that must succeed together run in a unit of
// work whose undo actions replay in reverse when a later step fails.
//
// Operations report progress to Options.Out as ✓/⚠/✗ lines and return
// errors that wrap the sentinels in errors.go.
package lifecycle
