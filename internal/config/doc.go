// Package config loads, normalizes, and validates promo configuration.
//
// It supplies defaults for every knob (canvas geometry, JPEG quality, bucket
// count, source policy), expands user paths, and reads TOML files. Callers
// should obtain settings through Load so they receive expanded paths and
// clear validation errors.
package config
