package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPrivilegeRequired marks operations that need elevated rights and
	// did not have them. Surfaced before any mutation.
	ErrPrivilegeRequired = errors.New("privilege required")

	// ErrAlreadyInitialized and ErrNotInitialized mark lifecycle
	// precondition violations. Neither mutates anything.
	ErrAlreadyInitialized = errors.New("workspace already initialized")
	ErrNotInitialized     = errors.New("workspace not initialized")

	// ErrPreflightFailed marks a missing filesystem type or binary.
	ErrPreflightFailed = errors.New("preflight failed")

	// ErrVolumeOp marks a failed copy-on-write tool invocation. The
	// pipeline aborts; completed steps are not rolled back.
	ErrVolumeOp = errors.New("volume operation failed")

	// ErrMaterialization marks a failed staging-tree copy. The volume is
	// left in whatever partial state existed for operator cleanup.
	ErrMaterialization = errors.New("materialization failed")

	// ErrArtifactWrite marks a compression or write failure. A partial
	// artifact must never remain at the final path.
	ErrArtifactWrite = errors.New("artifact write failed")

	// ErrBuildInProgress marks a rejected concurrent build invocation.
	ErrBuildInProgress = errors.New("build already in progress")

	// ErrExternalTool marks failures of external binaries outside the
	// categories above.
	ErrExternalTool = errors.New("external tool error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatalPrecondition reports whether the error is a precondition violation
// that aborted before any mutation took place.
func IsFatalPrecondition(err error) bool {
	return errors.Is(err, ErrPrivilegeRequired) ||
		errors.Is(err, ErrAlreadyInitialized) ||
		errors.Is(err, ErrNotInitialized) ||
		errors.Is(err, ErrPreflightFailed) ||
		errors.Is(err, ErrBuildInProgress)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
