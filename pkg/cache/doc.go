// Package cache provides a generic, thread-safe bounded cache with
// per-entry time-to-live and strict insertion-order eviction.
//
// Unlike an LRU cache, reads never promote entries: when the cache is
// over capacity the oldest-inserted entry is evicted, which keeps
// eviction behavior predictable for result caches where hit recency is
// not a useful signal.
//
// # Usage
//
//	c := cache.NewTTLCache[string, bool](100, 5*time.Minute)
//	c.Put("email:bob@example.com:", true)
//	if v, ok := c.Get("email:bob@example.com:"); ok {
//	    // fresh cached result
//	}
//
// An optional eviction callback receives every dropped entry, whether it
// was removed by capacity pressure, expiry, Remove, or Clear.
package cache
