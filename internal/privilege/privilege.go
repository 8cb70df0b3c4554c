// Package privilege separates the elevated-rights gate from the ownership
// fixups that make root-created paths usable by the invoking user again.
//
// Mutating verbs require the whole process to run elevated (btrfs subvolume
// manipulation needs it), so the CLI calls RequireRoot once up front. Every
// path created during an elevated phase is then handed to NormalizeOwnership
// so a normal user can manage workspace contents afterwards.
package privilege

import (
	"fmt"
	"os"
	"strconv"

	"mkimg/internal/services"
)

// RequireRoot fails with services.ErrPrivilegeRequired when the process does
// not hold root. It performs no mutation of any kind.
func RequireRoot() error {
	if os.Geteuid() != 0 {
		return services.Wrap(services.ErrPrivilegeRequired, "privilege", "check", "must be invoked as root", nil)
	}
	return nil
}

// InvokerIDs returns the uid/gid of the user who invoked the elevated
// process, read from the sudo environment. ok is false when the process was
// not launched through sudo (or the variables are unparsable), in which case
// no ownership fixup is needed.
func InvokerIDs() (uid, gid int, ok bool) {
	uidStr, uidSet := os.LookupEnv("SUDO_UID")
	gidStr, gidSet := os.LookupEnv("SUDO_GID")
	if !uidSet || !gidSet {
		return 0, 0, false
	}
	uid, err := strconv.Atoi(uidStr)
	if err != nil {
		return 0, 0, false
	}
	gid, err = strconv.Atoi(gidStr)
	if err != nil {
		return 0, 0, false
	}
	return uid, gid, true
}

// NormalizeOwnership chowns path back to the invoking user. It is a no-op
// when the process is not elevated or was not started through sudo, so
// library code can call it unconditionally after creating a path.
func NormalizeOwnership(path string) error {
	if os.Geteuid() != 0 {
		return nil
	}
	uid, gid, ok := InvokerIDs()
	if !ok {
		return nil
	}
	if err := os.Chown(path, uid, gid); err != nil {
		return fmt.Errorf("normalize ownership of %s: %w", path, err)
	}
	return nil
}
