// Package config loads, validates, and normalizes mixtape's TOML
// configuration.
//
// Defaults are always applied first; a config file only overrides what it
// sets. Paths expand ~ and resolve to absolute form during normalization so
// the rest of the codebase never deals with relative or home-anchored
// paths. Validation fails loudly on out-of-range tuning values rather than
// silently clamping them.
package config
