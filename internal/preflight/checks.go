package preflight

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// CheckWorkspaceFilesystem verifies the workspace root resides on a btrfs
// filesystem using the superblock magic, without shelling out.
func CheckWorkspaceFilesystem(root string) Result {
	const name = "Workspace filesystem"
	var stat unix.Statfs_t
	if err := unix.Statfs(root, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", root, err)}
	}
	if stat.Type != unix.BTRFS_SUPER_MAGIC {
		return Result{Name: name, Detail: fmt.Sprintf("%s is not on btrfs (magic 0x%x)", root, stat.Type)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s is on btrfs", root)}
}

// CheckSubvolumeProbe asks the filesystem tool itself whether the workspace
// is a subvolume it can manage. This catches btrfs-on-paper setups the
// statfs check cannot, like a tool/kernel mismatch.
func CheckSubvolumeProbe(ctx context.Context, prober FilesystemProber, root string) Result {
	const name = "Subvolume probe"
	if err := prober.InspectRootID(ctx, root); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", root, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s resolves to a subvolume", root)}
}

// CheckDirectoryAccess verifies that the directory exists and is
// readable/writable by the current process.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}
