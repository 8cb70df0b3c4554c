package mkosi

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"mkimg/internal/logging"
	"mkimg/internal/services"
)

// Executor abstracts command execution for testability. Output lines are
// forwarded through onLine as they arrive so operators watching a long build
// can see which step is in progress.
type Executor interface {
	Run(ctx context.Context, dir, binary string, args []string, onLine func(string)) error
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

// WithLogger attaches a logger for streamed builder output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client wraps the external OS-image builder. The builder is a black box: it
// reads the declarative configuration in the workspace root and populates a
// staging tree under the configured output directory.
type Client struct {
	binary  string
	dir     string
	timeout time.Duration
	exec    Executor
	logger  *slog.Logger
}

// New constructs a builder client rooted at the workspace directory.
func New(binary, dir string, timeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("builder binary required")
	}
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("builder working directory required")
	}
	client := &Client{
		binary:  binary,
		dir:     dir,
		timeout: time.Duration(timeoutSeconds) * time.Second,
		exec:    commandExecutor{},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Build runs the image builder against the workspace's declared
// configuration, producing a staging tree.
func (c *Client) Build(ctx context.Context) error {
	runCtx, cancel := c.bound(ctx)
	defer cancel()

	log := logging.NewComponentLogger(c.logger, "builder")
	if id, ok := services.BuildIDFromContext(ctx); ok {
		log = log.With(logging.String("build_id", id))
	}
	err := c.exec.Run(runCtx, c.dir, c.binary, nil, func(line string) {
		log.Info(line)
	})
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "builder", "build", c.binary, err)
	}
	return nil
}

// Summary delegates to the builder's own summary facility, writing its
// output to w.
func (c *Client) Summary(ctx context.Context, w io.Writer) error {
	runCtx, cancel := c.bound(ctx)
	defer cancel()

	err := c.exec.Run(runCtx, c.dir, c.binary, []string{"summary"}, func(line string) {
		fmt.Fprintln(w, line)
	})
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "builder", "summary", c.binary, err)
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

func (commandExecutor) Run(ctx context.Context, dir, binary string, args []string, onLine func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	cmd.Dir = dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	scan := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			if onLine != nil {
				onLine(scanner.Text())
			}
		}
	}
	wg.Add(2)
	go scan(stdout)
	go scan(stderr)
	wg.Wait()

	return cmd.Wait()
}
