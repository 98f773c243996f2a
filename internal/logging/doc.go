// Package logging builds the shared slog logger and the standardized
// structured attribute helpers used across sprout components.
package logging
