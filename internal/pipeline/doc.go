// Package pipeline implements the four-stage translation pipeline and the
// terminal mode router. Each stage validates the accumulated payload, invokes
// exactly one external capability, extends the payload, and hands it to the
// next queue; the identity stage routes the completed payload to the result
// store or the realtime channel depending on session mode.
//
// Stages never retry capability calls themselves. Redelivery of the queued
// message re-runs the whole stage, so external side effects follow
// at-least-once semantics.
package pipeline
