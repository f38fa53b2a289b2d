// Package events carries the engine's namespaced notification surface:
// init, per-field valid/invalid, group-validated, blocked submissions,
// reset, and destroy, each with a structured payload.
//
// The Bus favors the producer: delivery is non-blocking and slow
// subscribers lose events instead of stalling validation passes.
// Subscriptions can filter by event type at subscribe time.
package events
