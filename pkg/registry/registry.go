package registry

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrymomot/formkit/pkg/cache"
	"github.com/dmitrymomot/formkit/pkg/dom"
)

const (
	// DefaultCacheTTL bounds how long a validator result stays reusable.
	DefaultCacheTTL = 5 * time.Minute
	// DefaultCacheSize caps cached results; the oldest insert is evicted
	// once the cap is exceeded.
	DefaultCacheSize = 100
)

// Result is a validator outcome. Message is optional: when empty, the
// engine resolves a message from per-field overrides or the message
// catalog by rule name.
type Result struct {
	Valid   bool
	Message string
}

// Pass is the successful outcome.
var Pass = Result{Valid: true}

// Fail returns a failing outcome carrying an explicit message.
func Fail(message string) Result {
	return Result{Valid: false, Message: message}
}

// Func is the validator contract. value is the field's current value,
// params the raw rule parameter string ("" when none), and field the
// element under validation for cross-field checks. Async validators
// must honor ctx cancellation where they can; the engine discards the
// result of a superseded call either way.
type Func func(ctx context.Context, value, params string, field dom.Element) (Result, error)

// Descriptor pairs a validator with its execution contract. Async is
// decided here, at registration time, so the engine never has to guess
// from the function's shape.
type Descriptor struct {
	Fn    Func
	Async bool
}

// Registry maps rule names to validator descriptors. Lookups fall back
// to an optional parent scope, which lets per-instance registries
// shadow the shared global one while keeping the global scope a single
// inspectable object.
type Registry struct {
	mu         sync.RWMutex
	validators map[string]Descriptor
	parent     *Registry
	results    *cache.TTLCache[string, Result]
}

// Option configures a Registry.
type Option func(*Registry)

// WithParent sets the fallback scope consulted when a name is not
// registered locally.
func WithParent(parent *Registry) Option {
	return func(r *Registry) { r.parent = parent }
}

// WithCacheBounds overrides the result-cache capacity and TTL.
func WithCacheBounds(size int, ttl time.Duration) Option {
	return func(r *Registry) { r.results = cache.NewTTLCache[string, Result](size, ttl) }
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		validators: make(map[string]Descriptor),
		results:    cache.NewTTLCache[string, Result](DefaultCacheSize, DefaultCacheTTL),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register binds a validator descriptor to a rule name, replacing any
// existing binding. Returns ErrInvalidValidator for an empty name or
// nil function.
func (r *Registry) Register(name string, d Descriptor) error {
	if name == "" || d.Fn == nil {
		return ErrInvalidValidator
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validators[name] = d
	return nil
}

// RegisterFunc registers a synchronous validator.
func (r *Registry) RegisterFunc(name string, fn Func) error {
	return r.Register(name, Descriptor{Fn: fn})
}

// RegisterAsync registers an asynchronous validator, subject to the
// engine's in-flight tracking and cancellation protocol.
func (r *Registry) RegisterAsync(name string, fn Func) error {
	return r.Register(name, Descriptor{Fn: fn, Async: true})
}

// Get resolves a name locally, then through the parent chain.
func (r *Registry) Get(name string) (Descriptor, bool) {
	r.mu.RLock()
	d, ok := r.validators[name]
	r.mu.RUnlock()
	if ok {
		return d, true
	}
	if r.parent != nil {
		return r.parent.Get(name)
	}
	return Descriptor{}, false
}

// Has reports whether the name resolves in this registry or its parents.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Remove unbinds a locally registered name. Parent scopes are never
// touched. Returns false when the name was not locally registered.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.validators[name]; !ok {
		return false
	}
	delete(r.validators, name)
	return true
}

// Names lists locally registered rule names, excluding parent scopes.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.validators))
	for name := range r.validators {
		out = append(out, name)
	}
	return out
}

// CacheKey derives the result-cache key for one invocation. Identical
// (validator, value, params) triples share cached results across fields.
func CacheKey(name, value, params string) string {
	return name + ":" + value + ":" + params
}

// CachedResult returns a fresh cached result for the key, if any.
func (r *Registry) CachedResult(key string) (Result, bool) {
	return r.results.Get(key)
}

// StoreResult caches a validator outcome under the key.
func (r *Registry) StoreResult(key string, res Result) {
	r.results.Put(key, res)
}

// ClearCache drops every cached result immediately.
func (r *Registry) ClearCache() {
	r.results.Clear()
}

var global = New()

// Global returns the shared global registry used as the default parent
// for instance registries. It is a single explicit object so host code
// can inspect or extend the validation vocabulary without touching
// individual instances.
func Global() *Registry { return global }
