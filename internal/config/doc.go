// Package config loads, normalizes, and validates popquiz configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// POPQUIZ_OUTPUT_DIR. The Config type centralizes every knob the CLI needs,
// letting output/sources/staging directories, canvas dimensions, and external
// tool names be discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical backend names, and clear validation errors.
package config
