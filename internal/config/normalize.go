package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeWorkspace(); err != nil {
		return err
	}
	c.normalizeBuilder()
	c.normalizeBtrfs()
	c.normalizeCompress()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeWorkspace() error {
	root := strings.TrimSpace(c.Workspace.Root)
	if root == "" {
		root = "."
	}
	expanded, err := expandPath(root)
	if err != nil {
		return fmt.Errorf("workspace.root: %w", err)
	}
	c.Workspace.Root = expanded
	return nil
}

func (c *Config) normalizeBuilder() {
	c.Builder.Binary = strings.TrimSpace(c.Builder.Binary)
	if c.Builder.Binary == "" {
		c.Builder.Binary = defaultBuilderBinary
	}
	c.Builder.Distribution = strings.TrimSpace(c.Builder.Distribution)
	if c.Builder.Distribution == "" {
		c.Builder.Distribution = defaultDistribution
	}
	c.Builder.Release = strings.TrimSpace(c.Builder.Release)
	if c.Builder.Release == "" {
		c.Builder.Release = defaultRelease
	}
	if len(c.Builder.Packages) == 0 {
		c.Builder.Packages = defaultPackages()
	}
	if c.Builder.TimeoutSeconds == 0 {
		c.Builder.TimeoutSeconds = defaultBuilderTimeoutSeconds
	}
}

func (c *Config) normalizeBtrfs() {
	c.Btrfs.Binary = strings.TrimSpace(c.Btrfs.Binary)
	if c.Btrfs.Binary == "" {
		c.Btrfs.Binary = defaultBtrfsBinary
	}
	if c.Btrfs.TimeoutSeconds == 0 {
		c.Btrfs.TimeoutSeconds = defaultBtrfsTimeoutSeconds
	}
}

func (c *Config) normalizeCompress() {
	c.Compress.Tool = strings.ToLower(strings.TrimSpace(c.Compress.Tool))
	if c.Compress.Tool == "" {
		c.Compress.Tool = defaultCompressTool
	}
	c.Compress.FallbackBinary = strings.TrimSpace(c.Compress.FallbackBinary)
	if c.Compress.FallbackBinary == "" {
		c.Compress.FallbackBinary = defaultCompressFallbackBinary
	}
	if c.Compress.Level == 0 {
		c.Compress.Level = defaultCompressLevel
	}
	if c.Compress.TimeoutSeconds == 0 {
		c.Compress.TimeoutSeconds = defaultCompressTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
