package testsupport

import (
	"path/filepath"
	"testing"

	"sprout/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.PhotoDir = filepath.Join(base, "photos")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Gemini.APIKey = "test"
	cfg.Auth.BcryptCost = 4
	cfg.Workflow.SessionPollInterval = 1
	cfg.Workflow.ErrorRetryInterval = 1
	cfg.Workflow.HeartbeatInterval = 1
	cfg.Workflow.HeartbeatTimeout = 2

	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithRemoteEngine points the test config at a remote engine URL.
func WithRemoteEngine(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Engine.Mode = config.EngineModeRemote
		cfg.Engine.RemoteURL = url
	}
}
