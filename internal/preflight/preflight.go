package preflight

import (
	"context"

	"mkimg/internal/compress"
	"mkimg/internal/config"
	"mkimg/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// FilesystemProber asks the copy-on-write tool whether a directory resides
// on its filesystem. The btrfs client satisfies this.
type FilesystemProber interface {
	InspectRootID(ctx context.Context, dir string) error
}

// RunAll executes every preflight check for the given config. All checks are
// collected regardless of individual outcomes so operators see the full
// picture, not just the first failure.
func RunAll(ctx context.Context, cfg *config.Config, prober FilesystemProber) []Result {
	if cfg == nil {
		return nil
	}

	root := cfg.Workspace.Root
	results := []Result{
		CheckWorkspaceFilesystem(root),
		CheckDirectoryAccess("Workspace root", root),
	}
	if prober != nil {
		results = append(results, CheckSubvolumeProbe(ctx, prober, root))
	}

	for _, status := range deps.CheckBinaries(requirements(cfg)) {
		results = append(results, Result{
			Name:   status.Name,
			Passed: status.Available,
			Detail: binaryDetail(status),
		})
	}
	return results
}

// AllPassed reports whether every check in results succeeded.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

func requirements(cfg *config.Config) []deps.Requirement {
	reqs := []deps.Requirement{
		{
			Name:        "Filesystem tool",
			Command:     cfg.Btrfs.Binary,
			Description: "Required for subvolume management",
		},
		{
			Name:        "Image builder",
			Command:     cfg.Builder.Binary,
			Description: "Required for OS image construction",
		},
	}
	primary, needsBinary := compress.CommandForConfig(cfg)
	if needsBinary {
		reqs = append(reqs, deps.Requirement{
			Name:        "Compressor",
			Command:     primary,
			Description: "Required for sendstream compression",
		})
	}
	if fallback := cfg.Compress.FallbackBinary; fallback != "" && fallback != primary {
		reqs = append(reqs, deps.Requirement{
			Name:        "Fallback compressor",
			Command:     fallback,
			Description: "Used when the primary compressor is unavailable",
		})
	}
	return reqs
}

func binaryDetail(status deps.Status) string {
	if status.Available {
		return "binary " + status.Command + " exists"
	}
	return status.Detail
}
