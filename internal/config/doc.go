// Package config loads, normalizes, and validates respack configuration.
//
// Settings come from an HCL (.hcl) or TOML (.toml) file chosen by extension.
// Keys missing from the file keep their defaults, so an empty file or no file
// at all yields Default().
package config
