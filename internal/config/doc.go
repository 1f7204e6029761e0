// Package config loads, normalizes, and validates the TOML configuration
// shared by the bridgitd daemon and the bridgit CLI.
package config
