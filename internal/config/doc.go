// Package config loads runtime options of the process (settings file path,
// remote credentials, HTTP and logging options) from multiple sources with
// precedence: CLI flags > YAML config > Environment variables (optionally
// seeded from a .env file) > Defaults. The trading bot's own settings are
// handled by package settings.
package config
