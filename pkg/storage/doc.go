// Package storage provides the key-value collaborator used to persist
// the single piece of cross-session state the engine keeps: the user's
// language preference.
//
// Two implementations ship with the package: MemoryStore for tests and
// ephemeral hosts, and RedisStore wrapping a go-redis universal client
// for shared deployments. Anything satisfying the three-method Store
// interface can be plugged in instead.
package storage
