// Package mkosi invokes the external OS-image builder as an opaque process.
// The builder reads its declarative configuration from the workspace root
// and populates the staging tree; this package only sequences and observes
// that work.
package mkosi
