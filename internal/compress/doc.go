// Package compress turns frozen subvolume send streams into durable
// compressed artifacts.
//
// The pipeline pipes the send producer directly into the compressor consumer
// with no intermediate materialization, writes to a temporary path, and
// renames atomically on success. External zstd/gzip processes and an
// in-process zstd encoder are interchangeable behind the Compressor
// interface.
package compress
