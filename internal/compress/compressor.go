package compress

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/klauspost/compress/zstd"

	"mkimg/internal/config"
)

// Compressor turns a raw sendstream into its compressed artifact form.
type Compressor interface {
	Compress(ctx context.Context, r io.Reader, w io.Writer) error
	Extension() string
}

// ForConfig selects the compressor implementation named by the config.
func ForConfig(cfg *config.Config) (Compressor, error) {
	switch cfg.Compress.Tool {
	case "zstd":
		return NewExternal("zstd", []string{"-q", fmt.Sprintf("-%d", cfg.Compress.Level), "-c"}, "zst"), nil
	case "gzip":
		return NewExternal(cfg.Compress.FallbackBinary, []string{"-c", fmt.Sprintf("-%d", clampGzipLevel(cfg.Compress.Level))}, "gz"), nil
	case "internal":
		return NewInternalZstd(cfg.Compress.Level)
	default:
		return nil, fmt.Errorf("unsupported compressor %q", cfg.Compress.Tool)
	}
}

// CommandForConfig names the external binary the configured compressor
// invokes. ok is false when compression happens in-process and no binary
// is needed.
func CommandForConfig(cfg *config.Config) (command string, ok bool) {
	switch cfg.Compress.Tool {
	case "zstd":
		return "zstd", true
	case "gzip":
		return strings.TrimSpace(cfg.Compress.FallbackBinary), true
	default:
		return "", false
	}
}

func clampGzipLevel(level int) int {
	if level < 1 {
		return 1
	}
	if level > 9 {
		return 9
	}
	return level
}

// External pipes the stream through an external compressor process reading
// stdin and writing stdout.
type External struct {
	binary string
	args   []string
	ext    string
}

// NewExternal constructs a process-based compressor.
func NewExternal(binary string, args []string, ext string) *External {
	return &External{binary: strings.TrimSpace(binary), args: args, ext: ext}
}

func (e *External) Compress(ctx context.Context, r io.Reader, w io.Writer) error {
	cmd := exec.CommandContext(ctx, e.binary, e.args...) //nolint:gosec
	cmd.Stdin = r
	cmd.Stdout = w
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return fmt.Errorf("%s: %w: %s", e.binary, err, detail)
		}
		return fmt.Errorf("%s: %w", e.binary, err)
	}
	return nil
}

func (e *External) Extension() string { return e.ext }

// InternalZstd compresses in-process. It needs no external binary, which
// also makes it the compressor of choice for tests.
type InternalZstd struct {
	level zstd.EncoderLevel
}

// NewInternalZstd constructs an in-process zstd compressor. The level uses
// the zstd CLI scale and is mapped to the nearest encoder level.
func NewInternalZstd(level int) (*InternalZstd, error) {
	return &InternalZstd{level: zstd.EncoderLevelFromZstd(level)}, nil
}

func (z *InternalZstd) Compress(ctx context.Context, r io.Reader, w io.Writer) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(z.level))
	if err != nil {
		return fmt.Errorf("zstd encoder: %w", err)
	}
	if _, err := io.Copy(enc, contextReader{ctx: ctx, r: r}); err != nil {
		enc.Close()
		return fmt.Errorf("zstd compress: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("zstd finish: %w", err)
	}
	return nil
}

func (z *InternalZstd) Extension() string { return "zst" }

// contextReader aborts long in-process compressions when the context ends.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
