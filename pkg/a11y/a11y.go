package a11y

import (
	"sync"

	"github.com/dmitrymomot/formkit/pkg/dom"
)

// Announcer delivers messages to assistive technology. assertive maps
// to the ARIA live-region politeness level: true interrupts the user,
// false waits for an idle moment.
type Announcer interface {
	Announce(message string, assertive bool)
}

// FocusManager moves input focus in response to validation outcomes.
type FocusManager interface {
	// FocusFirst focuses the first element in the slice, typically the
	// first invalid field after a blocked submission.
	FocusFirst(fields []dom.Element)
}

// NopAnnouncer discards announcements. Used when the host wires its own
// live-region plumbing outside the engine.
type NopAnnouncer struct{}

func (NopAnnouncer) Announce(string, bool) {}

// RecordingAnnouncer captures announcements for inspection in tests.
type RecordingAnnouncer struct {
	mu      sync.Mutex
	entries []Announcement
}

// Announcement is one captured message.
type Announcement struct {
	Message   string
	Assertive bool
}

func (r *RecordingAnnouncer) Announce(message string, assertive bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Announcement{Message: message, Assertive: assertive})
}

// Announcements returns a copy of everything announced so far.
func (r *RecordingAnnouncer) Announcements() []Announcement {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Announcement, len(r.entries))
	copy(out, r.entries)
	return out
}

// ElementFocus is the default FocusManager: it calls Focus on the first
// field.
type ElementFocus struct{}

func (ElementFocus) FocusFirst(fields []dom.Element) {
	if len(fields) > 0 {
		fields[0].Focus()
	}
}
