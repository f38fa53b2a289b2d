package events

import "time"

// Type names one namespaced engine notification.
type Type string

const (
	TypeInit           Type = "formkit.init"
	TypeFieldValid     Type = "formkit.field.valid"
	TypeFieldInvalid   Type = "formkit.field.invalid"
	TypeGroupValidated Type = "formkit.group.validated"
	TypeSubmitBlocked  Type = "formkit.submit.blocked"
	TypeReset          Type = "formkit.reset"
	TypeDestroy        Type = "formkit.destroy"
)

// Event is the structured payload delivered to subscribers. Fields not
// applicable to an event type are zero: FieldID is empty for form-level
// events, Errors is nil for per-field events, and so on.
type Event struct {
	ID      string
	Type    Type
	FormID  string
	FieldID string
	Field   string // form-control name, when known
	Group   string
	Valid   bool
	Message string
	// Errors aggregates messages by field identity for group- and
	// form-level events.
	Errors map[string]string
	At     time.Time
}
