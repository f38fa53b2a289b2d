package binder

import (
	"io"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/formkit/pkg/dom"
)

// Placement positions a created error container relative to its field.
type Placement string

const (
	PlacementAfter  Placement = "after"
	PlacementBefore Placement = "before"
	PlacementAppend Placement = "append"
)

// CSS state classes written to fields.
const (
	ClassInvalid = "formkit-invalid"
	ClassValid   = "formkit-valid"
	// DefaultErrorClass marks created error containers.
	DefaultErrorClass = "formkit-error"
)

// Binding tracks one validated field: its element, derived
// configuration, error container, last observed value, and validity
// (nil until first validated). Bindings are owned by the Binder and
// shared with the engine's validation goroutines while the watcher
// reconfigures them, so everything except the immutable element is
// guarded and read through snapshot accessors.
type Binding struct {
	Element dom.Element

	mu             sync.RWMutex
	config         Config
	errorContainer dom.Element
	lastValue      string
	isValid        *bool
	ownsContainer  bool
}

// Config returns the field's current derived configuration. The
// watcher re-derives it when a watched attribute mutates, so callers
// snapshot it once per pass instead of holding onto it.
func (bd *Binding) Config() Config {
	bd.mu.RLock()
	defer bd.mu.RUnlock()
	return bd.config
}

// ErrorContainer returns the element error messages render into.
func (bd *Binding) ErrorContainer() dom.Element {
	bd.mu.RLock()
	defer bd.mu.RUnlock()
	return bd.errorContainer
}

// LastValue returns the value recorded by the latest validation pass.
func (bd *Binding) LastValue() string {
	bd.mu.RLock()
	defer bd.mu.RUnlock()
	return bd.lastValue
}

// IsValid returns nil until the field has been validated, then the
// latest verdict.
func (bd *Binding) IsValid() *bool {
	bd.mu.RLock()
	defer bd.mu.RUnlock()
	return bd.isValid
}

// Binder discovers fields under a form, derives their configuration
// from attributes, tracks tree mutations, and batches all visual-state
// writes through a Flusher.
type Binder struct {
	doc     dom.Document
	form    dom.Element
	flusher Flusher
	watcher dom.Watcher
	logger  *slog.Logger

	placement  Placement
	errorTag   string
	errorClass string
	watcherCfg dom.WatcherConfig

	onAdded    func(*Binding)
	onRemoved  func(*Binding)
	onChanged  func(*Binding)
	onTeardown func()

	mu       sync.RWMutex
	bindings map[string]*Binding // keyed by element identity
	closed   bool
}

// Option configures a Binder.
type Option func(*Binder)

// WithFlusher replaces the default per-frame flusher. The binder closes
// whatever flusher it ends up with.
func WithFlusher(f Flusher) Option {
	return func(b *Binder) {
		if f != nil {
			b.flusher = f
		}
	}
}

// WithPlacement positions created error containers.
func WithPlacement(p Placement) Option {
	return func(b *Binder) { b.placement = p }
}

// WithErrorTemplate customizes the tag and class of created error
// containers. Both values are scrubbed of script-like constructs.
func WithErrorTemplate(tag, class string) Option {
	return func(b *Binder) {
		if tag = SanitizeTemplate(tag); tag != "" {
			b.errorTag = tag
		}
		if class = SanitizeTemplate(class); class != "" {
			b.errorClass = class
		}
	}
}

// WithLogger sets the logger for configuration warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Binder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithWatcherConfig tunes mutation batching and the polling fallback.
func WithWatcherConfig(cfg dom.WatcherConfig) Option {
	return func(b *Binder) { b.watcherCfg = cfg }
}

// OnFieldAdded registers a callback for newly bound fields.
func OnFieldAdded(fn func(*Binding)) Option {
	return func(b *Binder) { b.onAdded = fn }
}

// OnFieldRemoved registers a callback for unbound fields.
func OnFieldRemoved(fn func(*Binding)) Option {
	return func(b *Binder) { b.onRemoved = fn }
}

// OnFieldChanged registers a callback for reconfigured fields.
func OnFieldChanged(fn func(*Binding)) Option {
	return func(b *Binder) { b.onChanged = fn }
}

// OnTeardown registers a callback invoked when the binder tears itself
// down after detecting the form left the document.
func OnTeardown(fn func()) Option {
	return func(b *Binder) { b.onTeardown = fn }
}

// New creates a binder for the given form subtree. Call Scan to perform
// the initial field discovery and start mutation tracking.
func New(doc dom.Document, form dom.Element, opts ...Option) (*Binder, error) {
	if doc == nil || form == nil {
		return nil, ErrNilForm
	}
	b := &Binder{
		doc:        doc,
		form:       form,
		placement:  PlacementAfter,
		errorTag:   "div",
		errorClass: DefaultErrorClass,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		bindings:   make(map[string]*Binding),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.flusher == nil {
		b.flusher = NewFrameFlusher(0)
	}
	b.watcherCfg.AttrFilter = WatchedAttrs
	b.watcher = dom.NewWatcher(doc, form, b.handleMutations, b.watcherCfg)
	return b, nil
}

// Scan registers every matching field currently under the form and
// starts mutation tracking.
func (b *Binder) Scan() {
	dom.Walk(b.form, func(el dom.Element) {
		if matchesField(el) {
			b.register(el)
		}
	})
	b.watcher.Start()
}

func matchesField(el dom.Element) bool {
	if _, ok := el.Attr(AttrRules); !ok {
		return false
	}
	_, ignored := el.Attr(AttrIgnore)
	return !ignored
}

func (b *Binder) register(el dom.Element) *Binding {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	if existing, ok := b.bindings[el.ID()]; ok {
		b.mu.Unlock()
		return existing
	}
	bind := &Binding{
		Element:   el,
		config:    ParseConfig(el),
		lastValue: el.Value(),
	}
	b.bindings[el.ID()] = bind
	b.mu.Unlock()

	b.ensureContainer(bind)
	if b.onAdded != nil {
		b.onAdded(bind)
	}
	return bind
}

func (b *Binder) unregister(bind *Binding) {
	b.mu.Lock()
	if _, ok := b.bindings[bind.Element.ID()]; !ok {
		b.mu.Unlock()
		return
	}
	delete(b.bindings, bind.Element.ID())
	b.mu.Unlock()

	bind.mu.RLock()
	owns, container := bind.ownsContainer, bind.errorContainer
	bind.mu.RUnlock()
	if owns && container != nil {
		b.flusher.Enqueue(func() { container.Remove() })
	}
	if b.onRemoved != nil {
		b.onRemoved(bind)
	}
}

// ensureContainer resolves or creates the binding's error element. A
// configured target is reused as-is, never duplicated; without one, a
// fresh container is created and placed relative to the field.
func (b *Binder) ensureContainer(bind *Binding) {
	if target := bind.Config().ErrorTarget; target != "" {
		if el := dom.ByID(b.doc, target); el != nil {
			bind.mu.Lock()
			bind.errorContainer = el
			bind.ownsContainer = false
			bind.mu.Unlock()
			return
		}
		b.logger.Warn("error target not found, creating container", "target", target)
	}
	bind.mu.RLock()
	settled := bind.errorContainer != nil && bind.ownsContainer
	bind.mu.RUnlock()
	if settled {
		return
	}

	container := b.doc.CreateElement(b.errorTag)
	container.AddClass(b.errorClass)
	container.SetAttr("id", bind.Element.ID()+"-error")
	container.SetAttr("aria-live", "polite")

	field := bind.Element
	parent := field.Parent()
	switch {
	case b.placement == PlacementBefore && parent != nil:
		parent.InsertChildBefore(container, field)
	case b.placement == PlacementAppend && parent != nil:
		parent.AppendChild(container)
	case parent != nil:
		parent.InsertChildAfter(container, field)
	default:
		// Detached field; container stays detached alongside it.
	}
	bind.mu.Lock()
	bind.errorContainer = container
	bind.ownsContainer = true
	bind.mu.Unlock()
}

func (b *Binder) handleMutations(batch []dom.Mutation) {
	for _, m := range batch {
		switch m.Type {
		case dom.MutationAdded:
			dom.Walk(m.Target, func(el dom.Element) {
				if matchesField(el) {
					b.register(el)
				}
			})
		case dom.MutationRemoved:
			b.prune()
		case dom.MutationAttr:
			b.reconfigure(m.Target)
		}
	}

	if !b.form.IsConnected() {
		if b.onTeardown != nil {
			b.onTeardown()
		}
		b.Close()
	}
}

// prune drops bindings whose elements are no longer connected. Removal
// notifications only name the detached subtree root, so membership is
// re-checked across all bindings.
func (b *Binder) prune() {
	b.mu.RLock()
	var stale []*Binding
	for _, bind := range b.bindings {
		if !bind.Element.IsConnected() {
			stale = append(stale, bind)
		}
	}
	b.mu.RUnlock()
	for _, bind := range stale {
		b.unregister(bind)
	}
}

func (b *Binder) reconfigure(el dom.Element) {
	b.mu.RLock()
	bind, bound := b.bindings[el.ID()]
	b.mu.RUnlock()

	matches := matchesField(el)
	switch {
	case bound && !matches:
		b.unregister(bind)
	case !bound && matches:
		b.register(el)
	case bound && matches:
		cfg := ParseConfig(el)
		bind.mu.Lock()
		oldTarget := bind.config.ErrorTarget
		bind.config = cfg
		bind.mu.Unlock()
		if cfg.ErrorTarget != oldTarget {
			b.ensureContainer(bind)
		}
		if b.onChanged != nil {
			b.onChanged(bind)
		}
	}
}

// Lookup returns the binding for an element, or nil.
func (b *Binder) Lookup(el dom.Element) *Binding {
	if el == nil {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bindings[el.ID()]
}

// ByFieldName returns the first binding whose control name matches.
func (b *Binder) ByFieldName(name string) *Binding {
	if name == "" {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, bind := range b.bindings {
		if bind.Element.Name() == name {
			return bind
		}
	}
	return nil
}

// Bindings returns a snapshot of all current bindings.
func (b *Binder) Bindings() []*Binding {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*Binding, 0, len(b.bindings))
	for _, bind := range b.bindings {
		out = append(out, bind)
	}
	return out
}

// UpdateLastValue records the field's current value and returns it.
func (b *Binder) UpdateLastValue(bind *Binding) string {
	v := bind.Element.Value()
	bind.mu.Lock()
	bind.lastValue = v
	bind.mu.Unlock()
	return v
}

// ShowError queues the visual invalid state for the field: message text
// in the container (always plain text, never markup), state classes,
// and ARIA attributes.
func (b *Binder) ShowError(bind *Binding, message string) {
	invalid := false
	bind.mu.Lock()
	bind.isValid = &invalid
	container := bind.errorContainer
	bind.mu.Unlock()

	field := bind.Element
	b.flusher.Enqueue(func() {
		if container != nil {
			container.SetText(message)
		}
		field.AddClass(ClassInvalid)
		field.RemoveClass(ClassValid)
		field.SetAttr("aria-invalid", "true")
		if container != nil {
			if id, ok := container.Attr("id"); ok {
				field.SetAttr("aria-describedby", id)
			}
		}
	})
}

// ClearError queues the visual valid state for the field.
func (b *Binder) ClearError(bind *Binding) {
	valid := true
	bind.mu.Lock()
	bind.isValid = &valid
	container := bind.errorContainer
	bind.mu.Unlock()

	field := bind.Element
	b.flusher.Enqueue(func() {
		if container != nil {
			container.SetText("")
		}
		field.RemoveClass(ClassInvalid)
		field.AddClass(ClassValid)
		field.RemoveAttr("aria-invalid")
		field.RemoveAttr("aria-describedby")
	})
}

// ResetVisuals queues removal of every validation trace, returning the
// field to its pristine look. Used on instance reset.
func (b *Binder) ResetVisuals(bind *Binding) {
	bind.mu.Lock()
	bind.isValid = nil
	container := bind.errorContainer
	bind.mu.Unlock()

	field := bind.Element
	b.flusher.Enqueue(func() {
		if container != nil {
			container.SetText("")
		}
		field.RemoveClass(ClassInvalid)
		field.RemoveClass(ClassValid)
		field.RemoveAttr("aria-invalid")
		field.RemoveAttr("aria-describedby")
	})
}

// Flush forces any queued visual writes to apply now.
func (b *Binder) Flush() { b.flusher.Flush() }

// Close stops mutation tracking, applies pending writes, and drops all
// bindings. Idempotent.
func (b *Binder) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.bindings = make(map[string]*Binding)
	b.mu.Unlock()

	b.watcher.Stop()
	b.flusher.Close()
}
