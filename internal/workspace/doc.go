// Package workspace edits the shared configuration files at the root of a
// portal workspace:
//
//   - package.json, whose "workspaces" list is treated as a set of paths;
//   - ecosystem.config.js, the process-manager file whose "apps" array holds
//     one process descriptor per portal.
//
// Both editors rewrite only what they own. package.json keeps its key order
// and unrelated content; in ecosystem.config.js only the byte range of the
// apps array literal is replaced, and the file is parsed, never executed.
//
// The package also runs the workspace dependency install and compares a
// portal's declared dependencies before and after an update.
package workspace
