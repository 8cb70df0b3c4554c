package compress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"mkimg/internal/logging"
	"mkimg/internal/privilege"
	"mkimg/internal/services"
)

// Sender produces a linear serialization of a frozen volume. The btrfs
// client satisfies this.
type Sender interface {
	Send(ctx context.Context, path string, w io.Writer) error
}

// Pipeline connects a volume send stream directly to a compressor. The
// producer and consumer run concurrently over a pipe, so backpressure is
// automatic: a slow compressor blocks the sender.
type Pipeline struct {
	sender     Sender
	compressor Compressor
	timeout    time.Duration
	logger     *slog.Logger
}

// PipelineOption configures the pipeline.
type PipelineOption func(*Pipeline)

// WithLogger attaches a logger for progress diagnostics.
func WithLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPipeline constructs a stream pipeline.
func NewPipeline(sender Sender, compressor Compressor, timeoutSeconds int, opts ...PipelineOption) (*Pipeline, error) {
	if sender == nil {
		return nil, errors.New("pipeline requires a sender")
	}
	if compressor == nil {
		return nil, errors.New("pipeline requires a compressor")
	}
	p := &Pipeline{
		sender:     sender,
		compressor: compressor,
		timeout:    time.Duration(timeoutSeconds) * time.Second,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Extension returns the artifact extension of the configured compressor.
func (p *Pipeline) Extension() string {
	return p.compressor.Extension()
}

// Compress streams the volume at volumePath through the compressor into
// destPath. The artifact is written to a temporary sibling path and renamed
// into place only on confirmed success, so a failure never leaves a
// truncated file consumers could mistake for valid.
func (p *Pipeline) Compress(ctx context.Context, volumePath, destPath string) error {
	runCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	partial := destPath + ".partial"
	out, err := os.OpenFile(partial, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return services.Wrap(services.ErrArtifactWrite, "compress", "open", partial, err)
	}

	fail := func(op string, cause error) error {
		out.Close()
		_ = os.Remove(partial)
		return services.Wrap(services.ErrArtifactWrite, "compress", op, volumePath, cause)
	}

	pr, pw := io.Pipe()
	sendDone := make(chan error, 1)
	go func() {
		err := p.sender.Send(runCtx, volumePath, pw)
		// Closing the producer's end propagates EOF (or the send error)
		// to the consumer; without this the pipe never drains.
		pw.CloseWithError(err)
		sendDone <- err
	}()

	log := p.logger
	if id, ok := services.BuildIDFromContext(ctx); ok {
		log = log.With(logging.String("build_id", id))
	}
	if step, ok := services.StepFromContext(ctx); ok {
		log = log.With(logging.String("step", step))
	}
	log.Info("compressing volume",
		logging.String("volume", volumePath),
		logging.String("artifact", destPath))

	compressErr := p.compressor.Compress(runCtx, pr, out)
	pr.CloseWithError(compressErr)
	sendErr := <-sendDone

	if sendErr != nil {
		return fail("send", sendErr)
	}
	if compressErr != nil {
		return fail("compress", compressErr)
	}

	if err := out.Sync(); err != nil {
		return fail("sync", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(partial)
		return services.Wrap(services.ErrArtifactWrite, "compress", "close", partial, err)
	}
	if err := os.Rename(partial, destPath); err != nil {
		_ = os.Remove(partial)
		return services.Wrap(services.ErrArtifactWrite, "compress", "rename", destPath, err)
	}
	if err := privilege.NormalizeOwnership(destPath); err != nil {
		return fmt.Errorf("artifact ownership: %w", err)
	}
	return nil
}
