package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"mkimg/internal/fileutil"
	"mkimg/internal/identity"
	"mkimg/internal/logging"
	"mkimg/internal/services"
	"mkimg/internal/workspace"
)

// ImageBuilder populates the staging tree from the workspace's declarative
// configuration.
type ImageBuilder interface {
	Build(ctx context.Context) error
}

// VolumeManager is the subset of copy-on-write verbs the pipeline drives.
type VolumeManager interface {
	CreateSubvolume(ctx context.Context, path string) error
	SetReadOnly(ctx context.Context, path string, readOnly bool) error
}

// Streamer turns a frozen volume into a compressed artifact.
type Streamer interface {
	Compress(ctx context.Context, volumePath, destPath string) error
	Extension() string
}

// Result reports one successful build.
type Result struct {
	ID           identity.ID
	VolumePath   string
	ArtifactPath string
	Duration     time.Duration
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithLogger attaches a logger for step-by-step progress.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Orchestrator sequences one build: identity, volume creation, image
// construction, identity stamping, materialization, freeze, compression.
// Steps run strictly in order; the first failure aborts the remainder and
// nothing is retried or rolled back.
type Orchestrator struct {
	ws      *workspace.Workspace
	builder ImageBuilder
	volumes VolumeManager
	streams Streamer
	logger  *slog.Logger
}

// New constructs an orchestrator.
func New(ws *workspace.Workspace, builder ImageBuilder, volumes VolumeManager, streams Streamer, opts ...Option) (*Orchestrator, error) {
	if ws == nil || builder == nil || volumes == nil || streams == nil {
		return nil, errors.New("orchestrator requires workspace, builder, volumes, and streamer")
	}
	o := &Orchestrator{
		ws:      ws,
		builder: builder,
		volumes: volumes,
		streams: streams,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Run executes the full build pipeline and reports the elapsed wall-clock
// time. A failure after volume creation leaves the volume behind for
// operator inspection, tagged with a failure marker so clean-up tooling can
// tell it from a healthy build.
func (o *Orchestrator) Run(ctx context.Context) (Result, error) {
	start := time.Now()

	if !o.ws.IsInitialized() {
		return Result{}, services.Wrap(services.ErrNotInitialized, "pipeline", "build", o.ws.Root(), nil)
	}

	lock := workspace.NewBuildLock(o.ws)
	if err := lock.Acquire(); err != nil {
		return Result{}, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			o.logger.Warn("failed to release build lock", logging.Error(err))
		}
	}()

	id, err := identity.New()
	if err != nil {
		return Result{}, err
	}
	ctx = services.WithBuildID(ctx, id.String())
	log := o.logger.With(logging.String("build_id", id.String()))

	volumePath := o.ws.VolumePath(id.String())
	log.Info("creating volume", logging.String("volume", volumePath))
	if err := o.volumes.CreateSubvolume(ctx, volumePath); err != nil {
		return Result{}, err
	}

	// From here on the volume exists; failures tag it for inspection
	// instead of silently deleting it.
	fail := func(err error) (Result, error) {
		if markErr := o.ws.MarkFailed(id.String()); markErr != nil {
			log.Warn("failed to record failure marker", logging.Error(markErr))
		}
		return Result{}, err
	}

	log.Info("running image builder")
	if err := o.builder.Build(services.WithStep(ctx, "build")); err != nil {
		return fail(err)
	}

	staging := o.ws.StagingTreePath()
	log.Info("stamping build identity")
	if err := stampBuildID(staging, id); err != nil {
		return fail(err)
	}

	log.Info("materializing staging tree", logging.String("staging", staging))
	if err := materialize(staging, volumePath); err != nil {
		return fail(err)
	}

	log.Info("freezing volume")
	if err := o.volumes.SetReadOnly(ctx, volumePath, true); err != nil {
		return fail(err)
	}

	artifactPath := o.ws.ArtifactPath(id.String(), o.streams.Extension())
	log.Info("compressing volume", logging.String("artifact", artifactPath))
	if err := o.streams.Compress(services.WithStep(ctx, "compress"), volumePath, artifactPath); err != nil {
		return fail(err)
	}

	result := Result{
		ID:           id,
		VolumePath:   volumePath,
		ArtifactPath: artifactPath,
		Duration:     time.Since(start),
	}
	log.Info("build complete", logging.Duration("elapsed", result.Duration))
	return result, nil
}

// materialize copies the staging tree into the volume and removes the
// consumed source. Symlinks are preserved and unchanged files are skipped on
// repeat copies.
func materialize(staging, volumePath string) error {
	if err := fileutil.CopyTree(staging, volumePath, fileutil.CopyTreeOptions{
		PreserveSymlinks: true,
		Update:           true,
	}); err != nil {
		return services.Wrap(services.ErrMaterialization, "pipeline", "copy", staging, err)
	}
	if err := os.RemoveAll(staging); err != nil {
		return services.Wrap(services.ErrMaterialization, "pipeline", "remove staging tree", staging, err)
	}
	return nil
}

// stampBuildID appends the build identity to the staging tree's
// release-metadata file. Append-only: existing fields are never rewritten.
// The staging tree must already hold an etc/ directory; a builder that
// produced nothing fails here instead of yielding an artifact whose only
// content is the stamp.
func stampBuildID(staging string, id identity.ID) error {
	path := osReleasePath(staging)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return services.Wrap(services.ErrMaterialization, "pipeline", "stamp", path, err)
	}
	if _, err := fmt.Fprintf(f, "BUILD_ID=%q\n", id.String()); err != nil {
		f.Close()
		return services.Wrap(services.ErrMaterialization, "pipeline", "stamp", path, err)
	}
	if err := f.Close(); err != nil {
		return services.Wrap(services.ErrMaterialization, "pipeline", "stamp", path, err)
	}
	return nil
}

func osReleasePath(staging string) string {
	return filepath.Join(staging, "etc", "os-release")
}
