// Package portal defines what an installed portal is on disk: the naming
// rule for portal directories and the .portal-config.json metadata file that
// marks a directory as managed.
package portal
