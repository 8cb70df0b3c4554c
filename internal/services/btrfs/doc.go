// Package btrfs wraps the btrfs command-line tool behind the small set of
// verbs the build pipeline needs: create, delete, set-read-only, and send.
//
// Each verb is a single external invocation with a bounded timeout. Failures
// surface as services.ErrVolumeOp with the verb and path; nothing is retried.
package btrfs
