// Package config loads, normalizes, and validates mkimg configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob
// the CLI needs: workspace root, external tool binaries and timeouts,
// compressor selection, and log output settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical values, and clear validation errors.
package config
