package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"mkimg/internal/config"
	"mkimg/internal/logging"
	"mkimg/internal/privilege"
	"mkimg/internal/services"
)

// Managed directory and file names, relative to the workspace root.
const (
	DirBuild    = "build"
	DirStreams  = "streams"
	DirServices = "services"
	DirStaging  = "buildroot"

	FileBuilderConfig = "mkosi.default"
	FileBuilderSecret = "mkosi.rootpw"
	FileInitMarker    = ".init.lock"

	fileBuildLock    = ".build.lock"
	fileBuildSession = ".build.session"

	failedMarkerPrefix = ".failed-"
)

// VolumeManager is the subset of copy-on-write verbs workspace bookkeeping
// needs. The btrfs client satisfies it.
type VolumeManager interface {
	CreateSubvolume(ctx context.Context, path string) error
	DeleteSubvolume(ctx context.Context, path string) error
}

// Option configures the workspace.
type Option func(*Workspace)

// WithLogger attaches a logger for lifecycle diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workspace) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Workspace tracks the lifecycle of one build workspace: its initialization
// marker, managed directories and files, and the volumes under build/.
type Workspace struct {
	root    string
	volumes VolumeManager
	logger  *slog.Logger
}

// New constructs a workspace rooted at root.
func New(root string, volumes VolumeManager, opts ...Option) (*Workspace, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("workspace root required")
	}
	if volumes == nil {
		return nil, errors.New("workspace requires a volume manager")
	}
	ws := &Workspace{
		root:    root,
		volumes: volumes,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(ws)
	}
	return ws, nil
}

// Root returns the workspace root directory.
func (w *Workspace) Root() string { return w.root }

// Path joins parts onto the workspace root.
func (w *Workspace) Path(parts ...string) string {
	return filepath.Join(append([]string{w.root}, parts...)...)
}

// VolumePath returns the location of the volume named by id.
func (w *Workspace) VolumePath(id string) string {
	return w.Path(DirBuild, id)
}

// ArtifactPath returns the location of the compressed sendstream for id.
func (w *Workspace) ArtifactPath(id, ext string) string {
	return w.Path(DirStreams, fmt.Sprintf("%s.sendstream.%s", id, ext))
}

// StagingTreePath returns the directory the external builder populates.
func (w *Workspace) StagingTreePath() string {
	return w.Path(DirStaging, "image")
}

// IsInitialized reports whether the init marker exists. Its mere existence,
// not its contents, signals "initialized".
func (w *Workspace) IsInitialized() bool {
	_, err := os.Stat(w.Path(FileInitMarker))
	return err == nil
}

// Initialize creates the managed workspace layout. It fails without mutating
// anything when the workspace is already initialized, and writes the init
// marker last so a crash mid-init leaves the workspace recoverably
// uninitialized. Every created path has its ownership normalized to the
// invoking user.
func (w *Workspace) Initialize(ctx context.Context, builder config.Builder) error {
	if w.IsInitialized() {
		return services.Wrap(services.ErrAlreadyInitialized, "workspace", "init", w.root, nil)
	}

	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return fmt.Errorf("create workspace root: %w", err)
	}
	if err := privilege.NormalizeOwnership(w.root); err != nil {
		return err
	}

	buildDir := w.Path(DirBuild)
	if err := w.volumes.CreateSubvolume(ctx, buildDir); err != nil {
		return err
	}
	if err := privilege.NormalizeOwnership(buildDir); err != nil {
		return err
	}
	w.logger.Info("created build subvolume", logging.String("path", buildDir))

	for _, dir := range []string{DirStreams, DirServices, DirStaging} {
		path := w.Path(dir)
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create %s directory: %w", dir, err)
		}
		if err := privilege.NormalizeOwnership(path); err != nil {
			return err
		}
		w.logger.Info("created directory", logging.String("path", path))
	}

	configPath := w.Path(FileBuilderConfig)
	if err := os.WriteFile(configPath, []byte(RenderBuilderConfig(builder)), 0o644); err != nil {
		return fmt.Errorf("write builder config: %w", err)
	}
	if err := privilege.NormalizeOwnership(configPath); err != nil {
		return err
	}
	w.logger.Info("created builder config", logging.String("path", configPath))

	secretPath := w.Path(FileBuilderSecret)
	if err := os.WriteFile(secretPath, []byte(builder.RootPassword), 0o600); err != nil {
		return fmt.Errorf("write builder secret: %w", err)
	}
	if err := privilege.NormalizeOwnership(secretPath); err != nil {
		return err
	}
	w.logger.Info("created builder secret", logging.String("path", secretPath))

	// Written last: a crash before this point leaves IsInitialized false,
	// which is the correct recovery signal.
	markerPath := w.Path(FileInitMarker)
	if err := os.WriteFile(markerPath, nil, 0o644); err != nil {
		return fmt.Errorf("write init marker: %w", err)
	}
	if err := privilege.NormalizeOwnership(markerPath); err != nil {
		return err
	}
	return nil
}

// ListVolumes enumerates the volumes under build/. An empty result is valid,
// not an error, and a missing build directory reads as no volumes.
func (w *Workspace) ListVolumes() ([]string, error) {
	entries, err := os.ReadDir(w.Path(DirBuild))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list volumes: %w", err)
	}
	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		ids = append(ids, entry.Name())
	}
	sort.Strings(ids)
	return ids, nil
}

// MarkFailed records that the build named by id died after its volume was
// created, so operators can tell inspection leftovers from healthy builds.
func (w *Workspace) MarkFailed(id string) error {
	marker := w.Path(DirBuild, failedMarkerPrefix+id)
	stamp := time.Now().UTC().Format(time.RFC3339) + "\n"
	if err := os.WriteFile(marker, []byte(stamp), 0o644); err != nil {
		return fmt.Errorf("write failure marker: %w", err)
	}
	return privilege.NormalizeOwnership(marker)
}

// FailedBuilds returns the identities of builds with failure markers.
func (w *Workspace) FailedBuilds() ([]string, error) {
	entries, err := os.ReadDir(w.Path(DirBuild))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list failure markers: %w", err)
	}
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), failedMarkerPrefix) {
			continue
		}
		ids = append(ids, strings.TrimPrefix(entry.Name(), failedMarkerPrefix))
	}
	sort.Strings(ids)
	return ids, nil
}

// CleanResult summarizes what Clean removed.
type CleanResult struct {
	VolumesRemoved int
	Destroyed      bool
}

// Clean deletes every managed volume. With destroyAll it additionally
// removes the managed directories, config and secret files, and the init
// marker, returning the workspace to its pre-init state. A workspace that
// was never initialized cleans to a zero result without error.
func (w *Workspace) Clean(ctx context.Context, destroyAll bool) (CleanResult, error) {
	var result CleanResult

	ids, err := w.ListVolumes()
	if err != nil {
		return result, err
	}
	for _, id := range ids {
		if err := w.volumes.DeleteSubvolume(ctx, w.VolumePath(id)); err != nil {
			return result, err
		}
		result.VolumesRemoved++
		w.logger.Info("removed output volume", logging.String("volume", id))
	}

	if err := w.removeFailureMarkers(); err != nil {
		return result, err
	}

	if !destroyAll {
		w.logger.Info("workspace cleaned", logging.Int("volumes_removed", result.VolumesRemoved))
		return result, nil
	}

	for _, name := range []string{FileBuilderConfig, FileBuilderSecret, FileInitMarker, fileBuildLock, fileBuildSession} {
		if err := os.Remove(w.Path(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return result, fmt.Errorf("remove %s: %w", name, err)
		}
	}
	for _, dir := range []string{DirStreams, DirServices, DirStaging} {
		if err := os.RemoveAll(w.Path(dir)); err != nil {
			return result, fmt.Errorf("remove %s directory: %w", dir, err)
		}
	}

	buildDir := w.Path(DirBuild)
	if _, err := os.Stat(buildDir); err == nil {
		if err := w.volumes.DeleteSubvolume(ctx, buildDir); err != nil {
			// The build container may be a plain directory (partial
			// init or foreign layout); fall back to removal.
			if rmErr := os.RemoveAll(buildDir); rmErr != nil {
				return result, errors.Join(err, rmErr)
			}
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return result, fmt.Errorf("stat build directory: %w", err)
	}

	result.Destroyed = true
	w.logger.Info("workspace destroyed", logging.String("root", w.root))
	return result, nil
}

func (w *Workspace) removeFailureMarkers() error {
	ids, err := w.FailedBuilds()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := os.Remove(w.Path(DirBuild, failedMarkerPrefix+id)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove failure marker for %s: %w", id, err)
		}
	}
	return nil
}
