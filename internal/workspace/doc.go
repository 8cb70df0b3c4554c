// Package workspace owns the lifecycle state machine of a build workspace:
// the initialization marker, the managed directory and file layout, volume
// bookkeeping under build/, and the exclusive build lock.
//
// Initialization is idempotent-checked (a second init fails without
// mutating anything) and crash-safe (the marker is written last). Clean
// restores either an emptied reusable workspace or, with destroy semantics,
// the pre-init state.
package workspace
