// Package services provides the shared error taxonomy and context annotation
// helpers used across pipeline stages and delivery components.
package services
