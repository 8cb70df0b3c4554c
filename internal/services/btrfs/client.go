package btrfs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"mkimg/internal/services"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, stdout io.Writer) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps btrfs CLI interactions for a single workspace. Verbs map
// one-to-one onto external invocations; nothing is retried, because
// copy-on-write operations are not safe to blindly retry against partial
// state. Callers abort the pipeline on the first failure.
type Client struct {
	binary  string
	timeout time.Duration
	exec    Executor
}

// New constructs a btrfs client.
func New(binary string, timeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("btrfs binary required")
	}
	client := &Client{
		binary:  binary,
		timeout: time.Duration(timeoutSeconds) * time.Second,
		exec:    commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// CreateSubvolume creates a new read-write subvolume at path.
func (c *Client) CreateSubvolume(ctx context.Context, path string) error {
	return c.run(ctx, "create", path, []string{"subvolume", "create", path})
}

// DeleteSubvolume removes the subvolume at path. Deleting a volume that does
// not exist is an error here; callers enumerate existing volumes first.
func (c *Client) DeleteSubvolume(ctx context.Context, path string) error {
	return c.run(ctx, "delete", path, []string{"subvolume", "delete", path})
}

// SetReadOnly freezes (or thaws) the subvolume at path. A frozen volume is
// terminal until deletion; no caller mutates it in place afterwards.
func (c *Client) SetReadOnly(ctx context.Context, path string, readOnly bool) error {
	value := "false"
	if readOnly {
		value = "true"
	}
	return c.run(ctx, "set-read-only", path, []string{"property", "set", path, "ro", value})
}

// Send streams the serialized content of the frozen subvolume at path into w.
// The writer is typically one end of a pipe feeding a compressor.
func (c *Client) Send(ctx context.Context, path string, w io.Writer) error {
	runCtx, cancel := c.bound(ctx)
	defer cancel()
	if err := c.exec.Run(runCtx, c.binary, []string{"send", path}, w); err != nil {
		return services.Wrap(services.ErrVolumeOp, "btrfs", "send", path, err)
	}
	return nil
}

// InspectRootID probes whether dir resides on a btrfs filesystem by asking
// the tool for its root ID. A non-zero exit means it does not.
func (c *Client) InspectRootID(ctx context.Context, dir string) error {
	runCtx, cancel := c.bound(ctx)
	defer cancel()
	if err := c.exec.Run(runCtx, c.binary, []string{"inspect-internal", "rootid", dir}, io.Discard); err != nil {
		return fmt.Errorf("inspect rootid %s: %w", dir, err)
	}
	return nil
}

func (c *Client) run(ctx context.Context, verb, path string, args []string) error {
	runCtx, cancel := c.bound(ctx)
	defer cancel()
	if err := c.exec.Run(runCtx, c.binary, args, io.Discard); err != nil {
		return services.Wrap(services.ErrVolumeOp, "btrfs", verb, path, err)
	}
	return nil
}

func (c *Client) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, stdout io.Writer) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stdout = stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return fmt.Errorf("%w: %s", err, detail)
		}
		return err
	}
	return nil
}
