// Package queue implements the stage message dispatcher: fire-and-forget
// submission of stage outputs to named queues with transport-level retry.
//
// Delivery is at-least-once and unordered within a queue; every message
// carries the full accumulated session state so no stage depends on
// cross-message ordering.
package queue
