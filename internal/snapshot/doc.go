// Package snapshot materializes the latest snapshot of a remote portal
// source into a local directory.
//
// The primary strategy is an external snapshot tool (degit by default) that
// writes the files without history. When it fails, a depth-1 git clone is
// used instead and its .git directory stripped. A failed fetch never leaves a
// partial destination behind.
package snapshot
