package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateWorkspace(); err != nil {
		return err
	}
	if err := c.validateBuilder(); err != nil {
		return err
	}
	if err := c.validateCompress(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateWorkspace() error {
	if c.Workspace.Root == "" {
		return errors.New("workspace.root must be set")
	}
	return nil
}

func (c *Config) validateBuilder() error {
	if c.Builder.TimeoutSeconds < 0 {
		return errors.New("builder.timeout_seconds must not be negative")
	}
	if c.Builder.Distribution == "" {
		return errors.New("builder.distribution must be set")
	}
	if c.Builder.Release == "" {
		return errors.New("builder.release must be set")
	}
	if len(c.Builder.Packages) == 0 {
		return errors.New("builder.packages must list at least one package")
	}
	return nil
}

func (c *Config) validateCompress() error {
	switch c.Compress.Tool {
	case "zstd", "gzip", "internal":
	default:
		return fmt.Errorf("compress.tool: unsupported value %q (expected zstd, gzip, or internal)", c.Compress.Tool)
	}
	if c.Compress.Level < 0 || c.Compress.Level > 19 {
		return errors.New("compress.level must be between 0 and 19")
	}
	if c.Compress.TimeoutSeconds < 0 {
		return errors.New("compress.timeout_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
