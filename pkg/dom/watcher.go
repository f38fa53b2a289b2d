package dom

import (
	"sync"
	"time"
)

// MutationType classifies a tree change.
type MutationType string

const (
	MutationAdded   MutationType = "added"
	MutationRemoved MutationType = "removed"
	MutationAttr    MutationType = "attr"
)

// Mutation describes one observed tree change. For attribute mutations,
// Attr carries the attribute name.
type Mutation struct {
	Type   MutationType
	Target Element
	Attr   string
}

// Observable is the optional capability a Document may expose for
// reactive mutation delivery. Documents without it are watched by
// periodic polling instead.
type Observable interface {
	// SubscribeMutations registers a callback invoked synchronously for
	// every mutation and returns a cancel function.
	SubscribeMutations(fn func(Mutation)) (cancel func())
}

// Watcher delivers batches of coalesced mutations for a subtree.
type Watcher interface {
	Start()
	Stop()
}

// WatcherConfig tunes batching and the polling fallback.
type WatcherConfig struct {
	// Throttle is the coalescing window for reactive observation.
	Throttle time.Duration
	// PollInterval is the rescan period when observation is unavailable.
	PollInterval time.Duration
	// AttrFilter limits attribute mutations to the named attributes.
	// Empty means all attributes are reported.
	AttrFilter []string
}

func (c *WatcherConfig) withDefaults() {
	if c.Throttle <= 0 {
		c.Throttle = 50 * time.Millisecond
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
}

// NewWatcher returns a watcher for the subtree rooted at scope. When the
// document supports reactive observation it is used with a short
// coalescing window; otherwise the subtree is re-scanned periodically
// and mutations are synthesized by diffing.
func NewWatcher(doc Document, scope Element, onBatch func([]Mutation), cfg WatcherConfig) Watcher {
	cfg.withDefaults()
	if obs, ok := doc.(Observable); ok {
		return &observerWatcher{
			obs:     obs,
			scope:   scope,
			onBatch: onBatch,
			cfg:     cfg,
		}
	}
	return &pollingWatcher{
		doc:     doc,
		scope:   scope,
		onBatch: onBatch,
		cfg:     cfg,
	}
}

// observerWatcher subscribes to document mutations and flushes them in
// coalesced batches so bursts of churn produce one delivery.
type observerWatcher struct {
	obs     Observable
	scope   Element
	onBatch func([]Mutation)
	cfg     WatcherConfig

	mu      sync.Mutex
	pending []Mutation
	timer   *time.Timer
	cancel  func()
	stopped bool
}

func (w *observerWatcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil || w.stopped {
		return
	}
	w.cancel = w.obs.SubscribeMutations(w.record)
}

func (w *observerWatcher) record(m Mutation) {
	if !w.inScope(m.Target) {
		return
	}
	if m.Type == MutationAttr && len(w.cfg.AttrFilter) > 0 && !containsString(w.cfg.AttrFilter, m.Attr) {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	w.pending = append(w.pending, m)
	if w.timer == nil {
		w.timer = time.AfterFunc(w.cfg.Throttle, w.flush)
	}
}

func (w *observerWatcher) flush() {
	w.mu.Lock()
	batch := w.pending
	w.pending = nil
	w.timer = nil
	stopped := w.stopped
	w.mu.Unlock()

	if !stopped && len(batch) > 0 {
		w.onBatch(batch)
	}
}

// inScope checks membership against the watched subtree. Removed nodes no
// longer have an ancestor chain into the scope, so removals are accepted
// unconditionally and left for the consumer to reconcile.
func (w *observerWatcher) inScope(el Element) bool {
	for cur := el; cur != nil; cur = cur.Parent() {
		if cur.ID() == w.scope.ID() {
			return true
		}
	}
	return !el.IsConnected()
}

func (w *observerWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.pending = nil
}

// pollingWatcher re-scans the subtree on a coarse interval and diffs the
// element set and watched attributes against the previous snapshot.
type pollingWatcher struct {
	doc     Document
	scope   Element
	onBatch func([]Mutation)
	cfg     WatcherConfig

	mu       sync.Mutex
	ticker   *time.Ticker
	done     chan struct{}
	snapshot map[string]pollEntry
}

type pollEntry struct {
	el    Element
	attrs map[string]string
}

func (w *pollingWatcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ticker != nil {
		return
	}
	w.snapshot = w.scan()
	w.ticker = time.NewTicker(w.cfg.PollInterval)
	w.done = make(chan struct{})
	go w.loop(w.ticker, w.done)
}

func (w *pollingWatcher) loop(ticker *time.Ticker, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *pollingWatcher) scan() map[string]pollEntry {
	snap := make(map[string]pollEntry)
	Walk(w.scope, func(el Element) {
		attrs := make(map[string]string)
		if len(w.cfg.AttrFilter) > 0 {
			for _, name := range w.cfg.AttrFilter {
				if v, ok := el.Attr(name); ok {
					attrs[name] = v
				}
			}
		} else {
			attrs = el.Attrs()
		}
		snap[el.ID()] = pollEntry{el: el, attrs: attrs}
	})
	return snap
}

func (w *pollingWatcher) poll() {
	w.mu.Lock()
	prev := w.snapshot
	next := w.scan()
	w.snapshot = next
	w.mu.Unlock()

	var batch []Mutation
	for id, entry := range next {
		old, existed := prev[id]
		if !existed {
			batch = append(batch, Mutation{Type: MutationAdded, Target: entry.el})
			continue
		}
		for name, v := range entry.attrs {
			if old.attrs[name] != v {
				batch = append(batch, Mutation{Type: MutationAttr, Target: entry.el, Attr: name})
			}
		}
		for name := range old.attrs {
			if _, still := entry.attrs[name]; !still {
				batch = append(batch, Mutation{Type: MutationAttr, Target: entry.el, Attr: name})
			}
		}
	}
	for id, entry := range prev {
		if _, still := next[id]; !still {
			batch = append(batch, Mutation{Type: MutationRemoved, Target: entry.el})
		}
	}

	if len(batch) > 0 {
		w.onBatch(batch)
	}
}

func (w *pollingWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ticker == nil {
		return
	}
	w.ticker.Stop()
	close(w.done)
	w.ticker = nil
	w.snapshot = nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
