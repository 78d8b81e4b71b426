// Package settings manages the trading bot configuration document. A Manager
// loads the local JSON file or falls back to persisted defaults, merges
// overrides from an optional remote source and exposes the trading,
// evolution and risk sections as validated values.
//
// Source problems (missing file, bad JSON, unreachable remote) never fail the
// caller. Content problems surface as *ValidationError, which matches
// ErrInvalidConfig, distinct from ErrMissingSection and ErrNotLoaded.
package settings
