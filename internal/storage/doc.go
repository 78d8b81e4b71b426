// Package storage reads and writes raw configuration documents. FileStore is
// used in production; MemoryStore backs tests and lets callers inject write
// failures without touching the filesystem.
package storage
