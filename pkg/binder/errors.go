package binder

import "errors"

// ErrNilForm is returned when a binder is constructed without a
// document or form element.
var ErrNilForm = errors.New("binder: nil document or form element")
