package main

import (
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"mkimg/internal/config"
	"mkimg/internal/logging"
	"mkimg/internal/preflight"
	"mkimg/internal/privilege"
	"mkimg/internal/services/btrfs"
	"mkimg/internal/workspace"
)

type commandContext struct {
	configFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	log        *slog.Logger

	// Seams for tests; default to the real implementations.
	requireRoot func() error
	enforce     func(cmd *cobra.Command, cfg *config.Config, prober preflight.FilesystemProber, w io.Writer) error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		requireRoot: privilege.RequireRoot,
		enforce: func(cmd *cobra.Command, cfg *config.Config, prober preflight.FilesystemProber, w io.Writer) error {
			return preflight.Enforce(cmd.Context(), cfg, prober, w)
		},
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.log = logging.NewNop()
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.log = logging.NewNop()
			return
		}
		c.log = logger
	})
	return c.log
}

func (c *commandContext) volumeClient() (*btrfs.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return btrfs.New(cfg.Btrfs.Binary, cfg.Btrfs.TimeoutSeconds)
}

func (c *commandContext) workspaceState() (*workspace.Workspace, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	client, err := c.volumeClient()
	if err != nil {
		return nil, err
	}
	return workspace.New(cfg.Workspace.Root, client, workspace.WithLogger(c.logger()))
}

// enforcePreflight prints the full checklist to stderr and fails when any
// check failed.
func (c *commandContext) enforcePreflight(cmd *cobra.Command) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	client, err := c.volumeClient()
	if err != nil {
		return err
	}
	return c.enforce(cmd, cfg, client, cmd.ErrOrStderr())
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
