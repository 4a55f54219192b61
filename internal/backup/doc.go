// Package backup makes and restores full copies of portal directories.
//
// Each backup is a plain directory under the backups root named
// <portal>-<YYYYMMDD-HHMMSS>-<suffix>, holding the complete portal tree and
// a .backup-info.json sidecar. Backups are never deleted automatically.
package backup
