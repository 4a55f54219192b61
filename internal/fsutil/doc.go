// Package fsutil holds the directory-level file operations the lifecycle
// needs: recursive copy and merge with filters, moves that survive
// cross-device renames, atomic file writes, and recursive size totals.
package fsutil
