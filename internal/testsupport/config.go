// Package testsupport provides shared fixtures for package tests: configs
// seeded with temp directories, a volume manager fake with subvolume
// semantics, and stub external binaries.
package testsupport

import (
	"testing"

	"mkimg/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with a unique temp workspace per test.
// The in-process compressor is selected so tests never need external
// binaries.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Workspace.Root = t.TempDir()
	cfg.Compress.Tool = "internal"
	cfg.Builder.TimeoutSeconds = 30
	cfg.Btrfs.TimeoutSeconds = 30
	cfg.Compress.TimeoutSeconds = 30

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithCompressTool overrides the compressor selection on the test config.
func WithCompressTool(tool string) ConfigOption {
	return func(c *config.Config) {
		c.Compress.Tool = tool
	}
}
