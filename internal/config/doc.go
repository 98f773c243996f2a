// Package config loads, normalizes, and validates the TOML configuration
// shared by the sprout CLI and the sproutd daemon.
package config
