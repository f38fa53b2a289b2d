// Package a11y defines the accessibility collaborators the validation
// engine notifies: an Announcer for screen-reader messages and a
// FocusManager for moving focus to invalid fields.
//
// The engine only depends on the two narrow interfaces; the shipped
// implementations cover the common cases (no-op, element focus, and a
// recording announcer for tests).
package a11y
