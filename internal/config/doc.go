// Package config loads, normalizes, and validates discpipe configuration
// data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// DISCPIPE_CATALOG_TOKEN. The Config type centralizes every knob the daemon
// and CLI need, so downstream code always receives sanitized paths,
// canonical log formats, and clear validation errors.
//
// Always obtain settings through this package rather than reading files or
// environment variables directly.
package config
