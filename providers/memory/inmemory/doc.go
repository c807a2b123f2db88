// Package inmemory provides a concurrency-safe, map-backed implementation
// of the [memory.Store] interface that keeps conversations in process memory.
// It is designed for tests and single-process use where persistence across
// restarts is not required. The main entry point is [New].
package inmemory
