package formkit

import "time"

// FieldState is the per-field validity state machine: Unvalidated until
// the first pass, then Valid or Invalid after each pass. Unvalidated is
// only reachable again through an explicit Reset.
type FieldState string

const (
	StateUnvalidated FieldState = "unvalidated"
	StateValid       FieldState = "valid"
	StateInvalid     FieldState = "invalid"
)

// stateEntry records one field's latest outcome. Entries are created on
// first validation and discarded on reset, field removal, destroy, or
// by the periodic sweep when the configured cap is exceeded.
type stateEntry struct {
	state     FieldState
	message   string
	updatedAt time.Time
}

func (e *stateEntry) apply(valid bool, message string, now time.Time) {
	if valid {
		e.state = StateValid
		e.message = ""
	} else {
		e.state = StateInvalid
		e.message = message
	}
	e.updatedAt = now
}
