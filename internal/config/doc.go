// Package config loads, normalizes, and validates tunescan configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SPOTIFY_ID. A .env file beside the config or in the working directory is
// read first so credentials can stay out of the TOML file.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
