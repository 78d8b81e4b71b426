// Package application wires the settings manager, its remote store, metrics
// and the admin API into a runnable service. It also runs the optional
// background worker that re-applies the remote document on an interval.
package application
