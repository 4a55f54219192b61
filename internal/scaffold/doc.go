// Package scaffold creates new portal workspaces from embedded templates. It
// powers the "portals init" command, writing the workspace manifest, an empty
// process file and the directories the other commands expect.
package scaffold
