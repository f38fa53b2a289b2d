package formkit

import "errors"

var (
	// ErrInstanceDestroyed is returned by any validation call made after
	// Destroy; a torn-down instance fails fast instead of operating on
	// stale state.
	ErrInstanceDestroyed = errors.New("formkit: instance destroyed")

	// ErrNilForm is returned when a form instance is constructed without
	// a document or form element.
	ErrNilForm = errors.New("formkit: nil document or form element")

	// ErrFieldNotTracked is returned when a validation call names an
	// element the instance is not tracking.
	ErrFieldNotTracked = errors.New("formkit: field not tracked")
)
