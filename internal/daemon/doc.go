// Package daemon composes the relay's long-running services: the result
// store, the stage dispatcher, the HTTP API server, and the eviction
// sweeper. A lock file keeps a host to one daemon instance.
package daemon
