// Package preflight validates environment readiness before any mutating
// operation: the workspace must live on the expected copy-on-write
// filesystem and every required external binary must resolve on the path.
//
// Checks are advisory-collected but jointly gating: Enforce prints the full
// checklist regardless of individual outcomes and fails when any check
// failed, so operators always see the complete picture.
package preflight
