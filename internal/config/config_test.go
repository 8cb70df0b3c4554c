package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "config.toml")
	cfg, path, exists, err := Load(missing)
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if exists {
		t.Fatalf("expected missing file to be reported, got exists for %s", path)
	}
	if cfg.Builder.Binary != "mkosi" || cfg.Btrfs.Binary != "btrfs" {
		t.Fatalf("unexpected binary defaults: %#v", cfg)
	}
	if cfg.Compress.Tool != "zstd" || cfg.ArtifactExtension() != "zst" {
		t.Fatalf("unexpected compressor defaults: %#v", cfg.Compress)
	}
	if !filepath.IsAbs(cfg.Workspace.Root) {
		t.Fatalf("workspace root should be absolute, got %q", cfg.Workspace.Root)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[workspace]
root = "` + dir + `"

[builder]
distribution = "fedora"
release = "42"
packages = ["dnf"]

[compress]
tool = "GZIP"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !exists {
		t.Fatalf("expected config file to be detected")
	}
	if cfg.Workspace.Root != dir {
		t.Fatalf("workspace root = %q, want %q", cfg.Workspace.Root, dir)
	}
	if cfg.Builder.Distribution != "fedora" || cfg.Builder.Release != "42" {
		t.Fatalf("builder section not applied: %#v", cfg.Builder)
	}
	if cfg.Compress.Tool != "gzip" || cfg.ArtifactExtension() != "gz" {
		t.Fatalf("compressor tool not normalized: %#v", cfg.Compress)
	}
	// untouched sections keep their defaults
	if cfg.Btrfs.TimeoutSeconds != defaultBtrfsTimeoutSeconds {
		t.Fatalf("btrfs defaults lost: %#v", cfg.Btrfs)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad compressor", func(c *Config) { c.Compress.Tool = "xz" }, "compress.tool"},
		{"bad level", func(c *Config) { c.Compress.Level = 40 }, "compress.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "yaml" }, "logging.format"},
		{"no packages", func(c *Config) { c.Builder.Packages = nil }, "builder.packages"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(target); err != nil {
		t.Fatalf("create sample: %v", err)
	}
	if _, _, _, err := Load(target); err != nil {
		t.Fatalf("sample config should load cleanly: %v", err)
	}
}
