// Package api serves the configuration manager over HTTP: health, the raw
// document, single keys, validated settings sections and remote refresh.
package api
