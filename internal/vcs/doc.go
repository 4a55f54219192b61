// Package vcs answers the one version-control question the lifecycle asks:
// does a portal checkout carry uncommitted work? Only a directory that is
// the root of its own work tree counts as a checkout. It shells out to the
// git CLI, targeting the directory with -C.
package vcs
