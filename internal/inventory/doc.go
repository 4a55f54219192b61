// Package inventory enumerates the portals installed in a workspace. The
// sequence is computed lazily from disk on every call; nothing is cached.
package inventory
