// Package registry maps validation rule names to executable validator
// descriptors and caches their results.
//
// A Descriptor declares whether its validator is synchronous or
// asynchronous at registration time; the engine never introspects a
// function's shape at runtime. Instance registries fall back to the
// explicit Global registry, so third-party code can extend the shared
// validation vocabulary while individual form instances keep the option
// to shadow names locally.
//
// Results are cached under "name:value:params" keys with a five-minute
// TTL and a 100-entry cap, evicted in insertion order. The cache is
// shared across fields issuing identical checks, which is what makes
// repeated async checks (remote uniqueness lookups in particular) cheap.
package registry
