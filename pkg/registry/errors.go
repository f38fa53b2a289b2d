package registry

import "errors"

var (
	// ErrInvalidValidator is returned when a validator is registered
	// with an empty name or a nil function.
	ErrInvalidValidator = errors.New("registry: invalid validator registration")

	// ErrUnknownValidator is returned by callers that require a name to
	// resolve. The engine itself treats unresolvable names as warnings.
	ErrUnknownValidator = errors.New("registry: unknown validator")
)
