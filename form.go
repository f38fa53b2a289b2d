package formkit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/formkit/pkg/binder"
	"github.com/dmitrymomot/formkit/pkg/dom"
	"github.com/dmitrymomot/formkit/pkg/events"
	"github.com/dmitrymomot/formkit/pkg/i18n"
	"github.com/dmitrymomot/formkit/pkg/registry"
	"github.com/dmitrymomot/formkit/pkg/rules"
	"github.com/dmitrymomot/formkit/pkg/validators"
)

var builtinsOnce sync.Once

// Form is a validation instance bound to one form element. It owns the
// field bindings, per-field validity state, async in-flight tracking,
// and the event bus; visual updates go through the binder's frame
// flusher. All methods are safe for concurrent use. After Destroy,
// validation calls fail with ErrInstanceDestroyed.
type Form struct {
	cfg    config
	doc    dom.Document
	root   dom.Element
	binder *binder.Binder
	reg    *registry.Registry
	tr     *i18n.Translator
	bus    *events.Bus
	log    *slog.Logger

	mu           sync.Mutex
	states       map[string]*stateEntry
	inflight     map[inflightKey]*inflightEntry
	debounce     map[string]*time.Timer
	listeners    map[string][]func()
	removeSubmit func()

	destroyed atomic.Bool
	done      chan struct{}
}

// New binds a validation instance to the form element, scans it for
// fields carrying rule declarations, starts mutation tracking and the
// periodic sweep, and, unless disabled, hooks live validation and
// submit interception. ctx covers constructor-time IO only (restoring
// a persisted language preference).
func New(ctx context.Context, doc dom.Document, form dom.Element, opts ...Option) (*Form, error) {
	if doc == nil || form == nil {
		return nil, ErrNilForm
	}
	builtinsOnce.Do(func() {
		if err := validators.RegisterBuiltins(registry.Global()); err != nil {
			panic(fmt.Sprintf("formkit: built-in validator registration: %v", err))
		}
	})

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	log := cfg.logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	reg := cfg.registry
	if reg == nil {
		reg = registry.New(registry.WithParent(registry.Global()))
	}

	tr := cfg.translator
	if tr == nil {
		trOpts := []i18n.Option{i18n.WithLogger(log)}
		if cfg.store != nil {
			trOpts = append(trOpts, i18n.WithStore(cfg.store))
		}
		var err error
		if tr, err = i18n.New(ctx, trOpts...); err != nil {
			return nil, err
		}
	}

	f := &Form{
		cfg:       cfg,
		doc:       doc,
		root:      form,
		reg:       reg,
		tr:        tr,
		bus:       events.NewBus(cfg.eventBuffer),
		log:       log,
		states:    make(map[string]*stateEntry),
		inflight:  make(map[inflightKey]*inflightEntry),
		debounce:  make(map[string]*time.Timer),
		listeners: make(map[string][]func()),
		done:      make(chan struct{}),
	}

	binderOpts := append([]binder.Option{
		binder.WithLogger(log),
		binder.OnFieldAdded(f.onFieldAdded),
		binder.OnFieldRemoved(f.onFieldRemoved),
		binder.OnTeardown(func() { f.Destroy() }),
	}, cfg.binderOpts...)

	b, err := binder.New(doc, form, binderOpts...)
	if err != nil {
		return nil, err
	}
	f.binder = b
	b.Scan()

	if cfg.interceptSubmit {
		f.removeSubmit = form.Listen(dom.EventSubmit, f.onSubmit)
	}
	go f.sweepLoop()

	f.publish(events.Event{Type: events.TypeInit})
	return f, nil
}

// ID returns the identity of the bound form element.
func (f *Form) ID() string { return f.root.ID() }

// Root returns the bound form element.
func (f *Form) Root() dom.Element { return f.root }

// Registry returns the instance registry. Validators registered here
// shadow same-named global ones for this instance only.
func (f *Form) Registry() *registry.Registry { return f.reg }

// Events subscribes to engine notifications. With no types given, every
// event is delivered.
func (f *Form) Events(types ...events.Type) *events.Subscription {
	return f.bus.Subscribe(types...)
}

// SetLanguage switches the active message language and persists the
// preference when a store is configured.
func (f *Form) SetLanguage(ctx context.Context, lang string) error {
	return f.tr.SetLanguage(ctx, lang)
}

// Language returns the active message language.
func (f *Form) Language() string { return f.tr.Language() }

// ValidateField runs the field's rule list and applies the outcome to
// state, visuals, and events. The reported validity reflects this
// invocation even when a concurrent later invocation supersedes it.
func (f *Form) ValidateField(ctx context.Context, el dom.Element) (bool, error) {
	if f.destroyed.Load() {
		return false, ErrInstanceDestroyed
	}
	bind := f.binder.Lookup(el)
	if bind == nil {
		return false, ErrFieldNotTracked
	}
	valid, msg := f.evaluate(ctx, bind)
	f.applyOutcome(bind, valid, msg)
	return valid, nil
}

// Validate runs every tracked field concurrently and returns the
// aggregate verdict with failure messages keyed by field name (element
// identity when unnamed). Group outcomes are derived from the same
// pass, so no field is validated twice.
func (f *Form) Validate(ctx context.Context) (bool, map[string]string, error) {
	if f.destroyed.Load() {
		return false, nil, ErrInstanceDestroyed
	}
	bindings := f.orderedBindings()
	outcomes := f.validateConcurrently(ctx, bindings)

	errs := make(map[string]string)
	for i, bind := range bindings {
		f.applyOutcome(bind, outcomes[i].valid, outcomes[i].message)
		if !outcomes[i].valid {
			errs[fieldKey(bind)] = outcomes[i].message
		}
	}

	for _, group := range groupNames(bindings) {
		groupErrs := make(map[string]string)
		for i, bind := range bindings {
			if bind.Config().Group == group && !outcomes[i].valid {
				groupErrs[fieldKey(bind)] = outcomes[i].message
			}
		}
		f.publish(events.Event{
			Type:   events.TypeGroupValidated,
			Group:  group,
			Valid:  len(groupErrs) == 0,
			Errors: groupErrs,
		})
	}
	return len(errs) == 0, errs, nil
}

// ValidateGroup validates only the fields declaring the named group. A
// group nothing belongs to is vacuously valid.
func (f *Form) ValidateGroup(ctx context.Context, group string) (bool, map[string]string, error) {
	if f.destroyed.Load() {
		return false, nil, ErrInstanceDestroyed
	}
	var members []*binder.Binding
	for _, bind := range f.orderedBindings() {
		if bind.Config().Group == group {
			members = append(members, bind)
		}
	}
	if len(members) == 0 {
		return true, map[string]string{}, nil
	}

	outcomes := f.validateConcurrently(ctx, members)
	errs := make(map[string]string)
	for i, bind := range members {
		f.applyOutcome(bind, outcomes[i].valid, outcomes[i].message)
		if !outcomes[i].valid {
			errs[fieldKey(bind)] = outcomes[i].message
		}
	}
	f.publish(events.Event{
		Type:   events.TypeGroupValidated,
		Group:  group,
		Valid:  len(errs) == 0,
		Errors: errs,
	})
	return len(errs) == 0, errs, nil
}

// ValidateAllGroups validates each declared group in turn and returns
// per-group failure maps.
func (f *Form) ValidateAllGroups(ctx context.Context) (bool, map[string]map[string]string, error) {
	if f.destroyed.Load() {
		return false, nil, ErrInstanceDestroyed
	}
	all := true
	out := make(map[string]map[string]string)
	for _, group := range groupNames(f.orderedBindings()) {
		valid, errs, err := f.ValidateGroup(ctx, group)
		if err != nil {
			return false, nil, err
		}
		out[group] = errs
		all = all && valid
	}
	return all, out, nil
}

// SetFieldError marks the field invalid with the given message, exactly
// as a failed validation pass would. Idempotent: repeating the same
// message produces no second notification.
func (f *Form) SetFieldError(el dom.Element, message string) error {
	if f.destroyed.Load() {
		return ErrInstanceDestroyed
	}
	bind := f.binder.Lookup(el)
	if bind == nil {
		return ErrFieldNotTracked
	}
	f.applyOutcome(bind, false, message)
	return nil
}

// ClearFieldError marks the field valid, clearing any shown error.
// Idempotent on an already-valid field.
func (f *Form) ClearFieldError(el dom.Element) error {
	if f.destroyed.Load() {
		return ErrInstanceDestroyed
	}
	bind := f.binder.Lookup(el)
	if bind == nil {
		return ErrFieldNotTracked
	}
	f.applyOutcome(bind, true, "")
	return nil
}

// FieldState returns the field's current validity state and, when
// invalid, its message.
func (f *Form) FieldState(el dom.Element) (FieldState, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.states[el.ID()]
	if !ok {
		return StateUnvalidated, ""
	}
	return entry.state, entry.message
}

// Errors returns current failure messages keyed by field name (element
// identity when unnamed).
func (f *Form) Errors() map[string]string {
	snapshot := f.invalidSnapshot()
	out := make(map[string]string, len(snapshot))
	for _, bind := range f.binder.Bindings() {
		if msg, ok := snapshot[bind.Element.ID()]; ok {
			out[fieldKey(bind)] = msg
		}
	}
	return out
}

// ErrorCount returns the number of currently invalid fields.
func (f *Form) ErrorCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, entry := range f.states {
		if entry.state == StateInvalid {
			n++
		}
	}
	return n
}

// IsValid reports whether no tracked field is currently invalid.
// Unvalidated fields count as valid.
func (f *Form) IsValid() bool { return f.ErrorCount() == 0 }

// Reset returns the instance to its pristine state: outcomes dropped,
// outstanding async calls aborted, cached results cleared, and all
// visual traces removed.
func (f *Form) Reset() error {
	if f.destroyed.Load() {
		return ErrInstanceDestroyed
	}
	f.mu.Lock()
	for _, e := range f.inflight {
		e.cancel()
	}
	clear(f.inflight)
	for _, t := range f.debounce {
		t.Stop()
	}
	clear(f.debounce)
	clear(f.states)
	f.mu.Unlock()

	for _, bind := range f.binder.Bindings() {
		f.binder.ResetVisuals(bind)
	}
	f.reg.ClearCache()
	f.publish(events.Event{Type: events.TypeReset})
	return nil
}

// Destroy tears the instance down: listeners removed, outstanding async
// calls aborted, the sweep stopped, and the event bus closed after a
// final destroy notification. Idempotent.
func (f *Form) Destroy() {
	if !f.destroyed.CompareAndSwap(false, true) {
		return
	}
	close(f.done)

	f.mu.Lock()
	for _, e := range f.inflight {
		e.cancel()
	}
	clear(f.inflight)
	for _, t := range f.debounce {
		t.Stop()
	}
	clear(f.debounce)
	clear(f.states)
	for _, removers := range f.listeners {
		for _, remove := range removers {
			remove()
		}
	}
	clear(f.listeners)
	removeSubmit := f.removeSubmit
	f.removeSubmit = nil
	f.mu.Unlock()

	if removeSubmit != nil {
		removeSubmit()
	}
	f.publish(events.Event{Type: events.TypeDestroy})
	f.bus.Close()
	f.binder.Close()
}

// evaluate runs the core per-field protocol: skip condition, native
// constraint check, then the declared rules in order with the first
// failure winning. It mutates nothing; the caller applies the outcome.
func (f *Form) evaluate(ctx context.Context, bind *binder.Binding) (valid bool, message string) {
	el := bind.Element
	cfg := bind.Config()
	value := f.binder.UpdateLastValue(bind)

	if !f.shouldValidate(cfg) {
		return true, ""
	}
	if f.cfg.nativeValidation {
		if ok, reason := el.Validity(); !ok {
			return false, f.nativeMessage(bind, reason)
		}
	}

	for _, rule := range cfg.Rules {
		d, ok := f.reg.Get(rule.Name)
		if !ok {
			f.log.Warn("unknown validator, skipping", "rule", rule.Name, "field", fieldKey(bind))
			continue
		}

		var res registry.Result
		var err error
		if d.Async {
			res, err = f.runAsync(ctx, bind, rule, d, value)
		} else {
			res, err = safeInvoke(ctx, d.Fn, value, rule.Params, el)
		}
		switch {
		case isCancellation(err):
			// Superseded or aborted; the owning invocation reports.
			continue
		case err != nil:
			f.log.Warn("validator error", "rule", rule.Name, "field", fieldKey(bind), "error", err)
			return false, f.messageFor(bind, rule, registry.Fail(f.tr.T("validation_error", nil)))
		case !res.Valid:
			return false, f.messageFor(bind, rule, res)
		}
	}
	return true, ""
}

// shouldValidate applies the field's skip condition. A malformed
// condition or a missing referenced field is logged and the field
// validated anyway.
func (f *Form) shouldValidate(cfg binder.Config) bool {
	if cfg.ValidateIf == "" {
		return true
	}
	name, want, ok := strings.Cut(cfg.ValidateIf, ":")
	if !ok || name == "" {
		f.log.Warn("malformed skip condition, validating anyway", "condition", cfg.ValidateIf)
		return true
	}
	ref := dom.ByName(f.root, name)
	if ref == nil {
		f.log.Warn("skip condition references unknown field, validating anyway", "field", name)
		return true
	}
	return ref.Value() == want
}

func (f *Form) nativeMessage(bind *binder.Binding, reason string) string {
	key := "native." + reason
	if !f.tr.Has(key) {
		key = "native"
	}
	return f.messageFor(bind, rules.Rule{Name: "native"}, registry.Fail(f.tr.T(key, nil)))
}

// messageFor resolves the failure message: per-field override first,
// then the validator's own message, then the catalog by rule name.
func (f *Form) messageFor(bind *binder.Binding, rule rules.Rule, res registry.Result) string {
	args := map[string]any{"field": bind.Element.Name(), "param": rule.Params}
	if override := bind.Config().MessageFor(rule.Name); override != "" {
		return i18n.Interpolate(override, args)
	}
	if res.Message != "" {
		return res.Message
	}
	return f.tr.T(rule.Name, args)
}

// applyOutcome is the sole mutator of per-field state. A transition (or
// message change) drives exactly one visual update, announcement, and
// event; repeating the same outcome is a no-op.
func (f *Form) applyOutcome(bind *binder.Binding, valid bool, message string) {
	id := bind.Element.ID()

	f.mu.Lock()
	entry, ok := f.states[id]
	if !ok {
		entry = &stateEntry{state: StateUnvalidated}
		f.states[id] = entry
	}
	prevState, prevMsg := entry.state, entry.message
	entry.apply(valid, message, time.Now())
	changed := prevState != entry.state || prevMsg != entry.message
	f.mu.Unlock()
	if !changed {
		return
	}

	if valid {
		f.binder.ClearError(bind)
		f.publish(events.Event{
			Type:    events.TypeFieldValid,
			FieldID: id,
			Field:   bind.Element.Name(),
			Valid:   true,
		})
		return
	}
	f.binder.ShowError(bind, message)
	f.cfg.announcer.Announce(message, false)
	f.publish(events.Event{
		Type:    events.TypeFieldInvalid,
		FieldID: id,
		Field:   bind.Element.Name(),
		Message: message,
	})
}

type outcome struct {
	valid   bool
	message string
}

func (f *Form) validateConcurrently(ctx context.Context, bindings []*binder.Binding) []outcome {
	outcomes := make([]outcome, len(bindings))
	var wg sync.WaitGroup
	for i, bind := range bindings {
		wg.Add(1)
		go func(i int, bind *binder.Binding) {
			defer wg.Done()
			valid, msg := f.evaluate(ctx, bind)
			outcomes[i] = outcome{valid: valid, message: msg}
		}(i, bind)
	}
	wg.Wait()
	return outcomes
}

func (f *Form) onSubmit(e *dom.Event) {
	valid, errs, err := f.Validate(context.Background())
	if err != nil || valid {
		return
	}
	e.PreventDefault()
	f.binder.Flush()

	invalid := f.invalidSnapshot()
	var fields []dom.Element
	for _, bind := range f.orderedBindings() {
		if _, ok := invalid[bind.Element.ID()]; ok {
			fields = append(fields, bind.Element)
		}
	}
	f.cfg.focus.FocusFirst(fields)

	msg := f.tr.T("form.error", nil)
	if len(errs) > 1 {
		msg = f.tr.T("form.errors", map[string]any{"count": len(errs)})
	}
	f.cfg.announcer.Announce(msg, true)
	f.publish(events.Event{Type: events.TypeSubmitBlocked, Errors: errs})
}

func (f *Form) onFieldAdded(bind *binder.Binding) {
	if !f.cfg.liveValidation || f.destroyed.Load() {
		return
	}
	el := bind.Element
	schedule := func(*dom.Event) { f.scheduleValidation(bind) }
	removers := []func(){
		el.Listen(dom.EventInput, schedule),
		el.Listen(dom.EventChange, schedule),
		el.Listen(dom.EventBlur, func(*dom.Event) { go f.validateNow(bind) }),
	}
	f.mu.Lock()
	f.listeners[el.ID()] = removers
	f.mu.Unlock()
}

func (f *Form) onFieldRemoved(bind *binder.Binding) {
	id := bind.Element.ID()
	f.mu.Lock()
	for _, remove := range f.listeners[id] {
		remove()
	}
	delete(f.listeners, id)
	if t := f.debounce[id]; t != nil {
		t.Stop()
		delete(f.debounce, id)
	}
	delete(f.states, id)
	for key, e := range f.inflight {
		if key.fieldID == id {
			e.cancel()
			delete(f.inflight, key)
		}
	}
	f.mu.Unlock()
}

// scheduleValidation (re)arms the field's debounce timer; a burst of
// change events collapses into one validation pass.
func (f *Form) scheduleValidation(bind *binder.Binding) {
	if f.destroyed.Load() {
		return
	}
	id := bind.Element.ID()
	f.mu.Lock()
	if t := f.debounce[id]; t != nil {
		t.Stop()
	}
	f.debounce[id] = time.AfterFunc(f.cfg.debounce, func() {
		f.mu.Lock()
		delete(f.debounce, id)
		f.mu.Unlock()
		f.validateNow(bind)
	})
	f.mu.Unlock()
}

func (f *Form) validateNow(bind *binder.Binding) {
	if f.destroyed.Load() || f.binder.Lookup(bind.Element) == nil {
		return
	}
	valid, msg := f.evaluate(context.Background(), bind)
	f.applyOutcome(bind, valid, msg)
}

// Flush forces queued visual writes to apply now. Mostly useful in
// tests and in hosts driving their own frame loop.
func (f *Form) Flush() { f.binder.Flush() }

func (f *Form) publish(ev events.Event) {
	ev.FormID = f.root.ID()
	ev.At = time.Now()
	f.bus.Publish(ev)
}

// invalidSnapshot returns current failure messages keyed by element
// identity.
func (f *Form) invalidSnapshot() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string)
	for id, entry := range f.states {
		if entry.state == StateInvalid {
			out[id] = entry.message
		}
	}
	return out
}

// orderedBindings returns current bindings in document order, which is
// what "first invalid field" means for focus handling.
func (f *Form) orderedBindings() []*binder.Binding {
	var out []*binder.Binding
	dom.Walk(f.root, func(el dom.Element) {
		if bind := f.binder.Lookup(el); bind != nil {
			out = append(out, bind)
		}
	})
	return out
}

func fieldKey(bind *binder.Binding) string {
	if name := bind.Element.Name(); name != "" {
		return name
	}
	return bind.Element.ID()
}

func groupNames(bindings []*binder.Binding) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, bind := range bindings {
		g := bind.Config().Group
		if g == "" {
			continue
		}
		if _, ok := seen[g]; !ok {
			seen[g] = struct{}{}
			out = append(out, g)
		}
	}
	return out
}

// safeInvoke shields the engine from panicking validators; a panic
// surfaces as an ordinary validator error.
func safeInvoke(ctx context.Context, fn registry.Func, value, params string, field dom.Element) (res registry.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("validator panic: %v", r)
		}
	}()
	return fn(ctx, value, params, field)
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
