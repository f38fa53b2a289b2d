package formkit

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/formkit/pkg/binder"
	"github.com/dmitrymomot/formkit/pkg/dom"
	"github.com/dmitrymomot/formkit/pkg/registry"
	"github.com/dmitrymomot/formkit/pkg/rules"
)

// inflightKey identifies one async validation slot: at most one call
// per (field, rule) pair is authoritative at a time.
type inflightKey struct {
	fieldID string
	rule    string
}

// inflightEntry tracks the currently authoritative call for a slot. The
// token is compared on resolution; a mismatch means a newer call took
// over and this result must be discarded.
type inflightEntry struct {
	token     string
	cancel    context.CancelFunc
	startedAt time.Time
}

// runAsync executes an async validator under the supersession protocol:
// fresh cached results short-circuit; otherwise the call claims the
// (field, rule) slot with a unique token, cancelling any predecessor.
// On resolution the token is re-checked, and a superseded or cancelled
// call reports a silent pass so only the newest invocation speaks for
// the field. Only authoritative results are cached.
func (f *Form) runAsync(ctx context.Context, bind *binder.Binding, rule rules.Rule, d registry.Descriptor, value string) (registry.Result, error) {
	cacheKey := registry.CacheKey(rule.Name, value, rule.Params)
	if res, ok := f.reg.CachedResult(cacheKey); ok {
		return res, nil
	}

	key := inflightKey{fieldID: bind.Element.ID(), rule: rule.Name}
	token := uuid.NewString()
	runCtx, cancel := context.WithCancel(ctx)

	f.mu.Lock()
	if prev := f.inflight[key]; prev != nil {
		prev.cancel()
	}
	f.inflight[key] = &inflightEntry{token: token, cancel: cancel, startedAt: time.Now()}
	f.mu.Unlock()

	res, err := invokeCancellable(runCtx, d.Fn, value, rule.Params, bind.Element)

	f.mu.Lock()
	cur := f.inflight[key]
	authoritative := cur != nil && cur.token == token
	if authoritative {
		delete(f.inflight, key)
	}
	f.mu.Unlock()
	cancel()

	if !authoritative {
		return registry.Pass, nil
	}
	if runCtx.Err() != nil || isCancellation(err) {
		return registry.Pass, context.Cause(runCtx)
	}
	if err != nil {
		return registry.Result{}, err
	}
	f.reg.StoreResult(cacheKey, res)
	return res, nil
}

// invokeCancellable runs the validator in its own goroutine so a
// cancelled call settles immediately even when the validator ignores
// ctx. An abandoned call's eventual result is dropped by the token
// re-check in runAsync.
func invokeCancellable(ctx context.Context, fn registry.Func, value, params string, field dom.Element) (registry.Result, error) {
	type settled struct {
		res registry.Result
		err error
	}
	ch := make(chan settled, 1)
	go func() {
		res, err := safeInvoke(ctx, fn, value, params, field)
		ch <- settled{res: res, err: err}
	}()
	select {
	case s := <-ch:
		return s.res, s.err
	case <-ctx.Done():
		return registry.Pass, ctx.Err()
	}
}

// InFlightCount returns the number of outstanding async validations.
func (f *Form) InFlightCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inflight)
}

func (f *Form) sweepLoop() {
	ticker := time.NewTicker(f.cfg.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-f.done:
			return
		case <-ticker.C:
			f.Sweep()
		}
	}
}

// Sweep runs one cleanup pass over accumulated bookkeeping: async calls
// past their age or count caps are aborted oldest-first, retained field
// outcomes beyond the cap are dropped oldest-first, and debounce timers
// plus in-flight slots of fields no longer in the form are released.
// Runs periodically on its own; exposed for hosts that want to force a
// pass.
func (f *Form) Sweep() {
	now := time.Now()
	live := make(map[string]struct{})
	for _, bind := range f.binder.Bindings() {
		live[bind.Element.ID()] = struct{}{}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for key, e := range f.inflight {
		_, present := live[key.fieldID]
		if !present || now.Sub(e.startedAt) > f.cfg.inflightMaxAge {
			e.cancel()
			delete(f.inflight, key)
		}
	}

	if excess := len(f.inflight) - f.cfg.maxInFlight; excess > 0 {
		type aged struct {
			key inflightKey
			at  time.Time
		}
		entries := make([]aged, 0, len(f.inflight))
		for key, e := range f.inflight {
			entries = append(entries, aged{key: key, at: e.startedAt})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].at.Before(entries[j].at) })
		for _, a := range entries[:excess] {
			f.inflight[a.key].cancel()
			delete(f.inflight, a.key)
		}
	}

	if excess := len(f.states) - f.cfg.maxStates; excess > 0 {
		type aged struct {
			id string
			at time.Time
		}
		entries := make([]aged, 0, len(f.states))
		for id, e := range f.states {
			entries = append(entries, aged{id: id, at: e.updatedAt})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].at.Before(entries[j].at) })
		for _, a := range entries[:excess] {
			delete(f.states, a.id)
		}
	}

	for id, t := range f.debounce {
		if _, present := live[id]; !present {
			t.Stop()
			delete(f.debounce, id)
		}
	}
}
