// Package binder is the DOM adapter of the validation engine: it owns
// the mapping from form fields to their parsed configuration, error
// containers, and last-known values.
//
// Fields are discovered by an initial scan for the data-validate
// attribute and kept current by mutation tracking — reactive when the
// document supports observation, periodic re-scan otherwise, with
// bursts coalesced on a short timer. When the owning form leaves the
// document the binder tears itself down.
//
// All visible-state writes (error text, state classes, ARIA attributes)
// go through a Flusher that applies them once per frame tick, so a pass
// validating many fields lands as one coherent update. Error message
// text is always inserted as plain text; externally supplied container
// templates are scrubbed of script-like constructs first.
package binder
