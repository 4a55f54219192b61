// Package config manages user-level settings stored at ~/.portals/config.yaml,
// optionally overridden per workspace by <workspace>/.portals/config.yaml and
// by PORTALS_* environment variables. Resolve turns those layers into the
// concrete paths and commands a single invocation works with.
package config
