// Package registry fetches, validates and caches the portal registry: the
// JSON document mapping portal names to their themes and snapshot locators.
//
// The cache lives in the workspace and is considered fresh for one hour.
// When the network or the remote document fails, the last good copy is used
// regardless of age; only when no copy exists does Fetch fail with
// ErrNoRegistry.
package registry
