// Package session defines the delivery modes and the accumulating payload
// that travels through the translation pipeline.
package session
