// Package services defines shared utilities consumed by the build pipeline
// and external tool integrations.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper that tag failures with
//     their lifecycle category (precondition, volume op, materialization,
//     artifact write) for consistent exit-code and messaging behaviour.
//   - Context helpers that stamp the build identity and pipeline step so log
//     lines from external tool wrappers stay correlated.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability) stays uniform across the tool.
package services
