package lifecycle

import (
	"errors"

	"github.com/portal-labs/portals/internal/inventory"
	"github.com/portal-labs/portals/internal/portal"
	"github.com/portal-labs/portals/internal/snapshot"
)

var (
	// ErrInvalidName reports a name outside [a-z0-9-]+.
	ErrInvalidName = portal.ErrInvalidName

	// ErrAlreadyInstalled reports that add found the target directory.
	ErrAlreadyInstalled = errors.New("portal already installed")

	// ErrNotInstalled reports a portal directory that does not exist.
	ErrNotInstalled = inventory.ErrNotFound

	// ErrNotManaged reports a portal directory without usable metadata.
	ErrNotManaged = errors.New("portal not managed by this tool")

	// ErrUncommittedChanges reports local edits that a non-forced update
	// would overwrite.
	ErrUncommittedChanges = errors.New("portal has uncommitted changes")

	// ErrBackupFailed reports that a required backup could not be made.
	ErrBackupFailed = errors.New("backup failed")

	// ErrAborted reports that the operator declined to continue.
	ErrAborted = errors.New("aborted")

	// ErrEmptySnapshot reports a fetch that produced no files.
	ErrEmptySnapshot = snapshot.ErrEmptySnapshot
)
