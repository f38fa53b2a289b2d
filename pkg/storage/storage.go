package storage

import "context"

// Store is the key-value collaborator the engine persists the user
// language preference to. Implementations must be safe for concurrent
// use.
type Store interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores the value under the key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes the key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
