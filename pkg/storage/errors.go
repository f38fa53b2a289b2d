package storage

import "errors"

var (
	// ErrNilClient is returned when a store is constructed without a
	// backing client.
	ErrNilClient = errors.New("storage: nil client")

	// ErrStoreUnavailable wraps transport-level failures of the backing
	// store.
	ErrStoreUnavailable = errors.New("storage: store unavailable")
)
