package formkit_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formkit"
	"github.com/dmitrymomot/formkit/pkg/a11y"
	"github.com/dmitrymomot/formkit/pkg/binder"
	"github.com/dmitrymomot/formkit/pkg/dom"
	"github.com/dmitrymomot/formkit/pkg/events"
	"github.com/dmitrymomot/formkit/pkg/registry"
	"github.com/dmitrymomot/formkit/pkg/storage"
)

func newTestForm(t *testing.T, opts ...formkit.Option) (*dom.MemoryDocument, dom.Element, *formkit.Form) {
	t.Helper()
	doc := dom.NewMemoryDocument()
	formEl := doc.CreateElement("form")
	doc.Root().AppendChild(formEl)

	opts = append([]formkit.Option{
		formkit.WithFlusher(binder.SyncFlusher{}),
		formkit.WithoutLiveValidation(),
	}, opts...)
	f, err := formkit.New(context.Background(), doc, formEl, opts...)
	require.NoError(t, err)
	t.Cleanup(f.Destroy)
	return doc, formEl, f
}

func addField(doc *dom.MemoryDocument, parent dom.Element, name, ruleList, value string) dom.Element {
	field := doc.CreateElement("input")
	field.SetAttr("name", name)
	field.SetAttr(binder.AttrRules, ruleList)
	field.SetValue(value)
	parent.AppendChild(field)
	return field
}

func TestNew(t *testing.T) {
	t.Run("nil form rejected", func(t *testing.T) {
		doc := dom.NewMemoryDocument()
		_, err := formkit.New(context.Background(), doc, nil)
		assert.ErrorIs(t, err, formkit.ErrNilForm)
	})

	t.Run("untracked field rejected", func(t *testing.T) {
		doc, formEl, f := newTestForm(t)
		plain := doc.CreateElement("input")
		formEl.AppendChild(plain)

		_, err := f.ValidateField(context.Background(), plain)
		assert.ErrorIs(t, err, formkit.ErrFieldNotTracked)
	})
}

func TestValidateField_FailFast(t *testing.T) {
	doc, formEl, f := newTestForm(t)
	field := addField(doc, formEl, "email", "required|email", "")

	valid, err := f.ValidateField(context.Background(), field)
	require.NoError(t, err)
	assert.False(t, valid)
	state, msg := f.FieldState(field)
	assert.Equal(t, formkit.StateInvalid, state)
	assert.Equal(t, "This field is required", msg, "first failing rule wins")

	field.SetValue("not-an-email")
	valid, err = f.ValidateField(context.Background(), field)
	require.NoError(t, err)
	assert.False(t, valid)
	_, msg = f.FieldState(field)
	assert.Equal(t, "Please enter a valid email address", msg)

	field.SetValue("a@b.co")
	valid, err = f.ValidateField(context.Background(), field)
	require.NoError(t, err)
	assert.True(t, valid)
	state, _ = f.FieldState(field)
	assert.Equal(t, formkit.StateValid, state)
}

func TestValidateField_UnknownRuleSkipped(t *testing.T) {
	doc, formEl, f := newTestForm(t)
	field := addField(doc, formEl, "email", "no_such_rule|required", "")

	valid, err := f.ValidateField(context.Background(), field)
	require.NoError(t, err)
	assert.False(t, valid, "unknown rule skipped, required still runs")
	_, msg := f.FieldState(field)
	assert.Equal(t, "This field is required", msg)
}

func TestValidateField_PanickingValidator(t *testing.T) {
	doc, formEl, f := newTestForm(t)
	require.NoError(t, f.Registry().RegisterFunc("boom", func(context.Context, string, string, dom.Element) (registry.Result, error) {
		panic("kaboom")
	}))
	field := addField(doc, formEl, "x", "boom", "anything")

	valid, err := f.ValidateField(context.Background(), field)
	require.NoError(t, err)
	assert.False(t, valid)
	_, msg := f.FieldState(field)
	assert.Equal(t, "Validation failed for this field", msg)
}

func TestValidateField_CustomMessages(t *testing.T) {
	doc, formEl, f := newTestForm(t)

	t.Run("field-level override", func(t *testing.T) {
		field := addField(doc, formEl, "a", "required", "")
		field.SetAttr(binder.AttrErrorMessage, "fill in %{field}")

		_, err := f.ValidateField(context.Background(), field)
		require.NoError(t, err)
		_, msg := f.FieldState(field)
		assert.Equal(t, "fill in a", msg)
	})

	t.Run("per-rule override", func(t *testing.T) {
		field := addField(doc, formEl, "b", "required|minlen:3", "x")
		field.SetAttr(binder.AttrMessagePrefix+"minlen", "need %{param} characters")

		_, err := f.ValidateField(context.Background(), field)
		require.NoError(t, err)
		_, msg := f.FieldState(field)
		assert.Equal(t, "need 3 characters", msg)
	})
}

func TestValidateField_Conditional(t *testing.T) {
	doc, formEl, f := newTestForm(t)
	subscribe := addField(doc, formEl, "subscribe", "", "false")
	email := addField(doc, formEl, "email", "required|email", "")
	email.SetAttr(binder.AttrCondition, "subscribe:true")

	valid, err := f.ValidateField(context.Background(), email)
	require.NoError(t, err)
	assert.True(t, valid, "condition unmet, field skipped")
	state, _ := f.FieldState(email)
	assert.Equal(t, formkit.StateValid, state)

	subscribe.SetValue("true")
	valid, err = f.ValidateField(context.Background(), email)
	require.NoError(t, err)
	assert.False(t, valid, "condition met, rules apply")

	t.Run("skip clears previous error", func(t *testing.T) {
		subscribe.SetValue("false")
		valid, err := f.ValidateField(context.Background(), email)
		require.NoError(t, err)
		assert.True(t, valid)
		assert.Empty(t, f.Errors())
	})

	t.Run("malformed condition validates anyway", func(t *testing.T) {
		email.SetAttr(binder.AttrCondition, "garbage")
		valid, err := f.ValidateField(context.Background(), email)
		require.NoError(t, err)
		assert.False(t, valid)
	})
}

func TestValidateField_NativeValidity(t *testing.T) {
	doc, formEl, f := newTestForm(t, formkit.WithNativeValidation())
	field := addField(doc, formEl, "email", "email", "")
	field.SetAttr("required", "")

	valid, err := f.ValidateField(context.Background(), field)
	require.NoError(t, err)
	assert.False(t, valid)
	_, msg := f.FieldState(field)
	assert.Equal(t, "This field is required", msg, "native violation resolved from catalog")
}

func TestValidateField_Visuals(t *testing.T) {
	doc, formEl, f := newTestForm(t)
	field := addField(doc, formEl, "email", "required", "")

	_, err := f.ValidateField(context.Background(), field)
	require.NoError(t, err)
	assert.True(t, field.HasClass(binder.ClassInvalid))
	ariaInvalid, _ := field.Attr("aria-invalid")
	assert.Equal(t, "true", ariaInvalid)

	field.SetValue("present")
	_, err = f.ValidateField(context.Background(), field)
	require.NoError(t, err)
	assert.False(t, field.HasClass(binder.ClassInvalid))
	assert.True(t, field.HasClass(binder.ClassValid))
}

func TestAsyncSupersession(t *testing.T) {
	doc, formEl, f := newTestForm(t)

	release := make(chan struct{})
	require.NoError(t, f.Registry().RegisterAsync("slow", func(ctx context.Context, value, _ string, _ dom.Element) (registry.Result, error) {
		if value != "old" {
			return registry.Pass, nil
		}
		select {
		case <-release:
			return registry.Fail("old rejected"), nil
		case <-ctx.Done():
			return registry.Pass, ctx.Err()
		}
	}))
	field := addField(doc, formEl, "username", "slow", "old")

	firstDone := make(chan bool, 1)
	go func() {
		valid, _ := f.ValidateField(context.Background(), field)
		firstDone <- valid
	}()
	require.Eventually(t, func() bool { return f.InFlightCount() == 1 },
		time.Second, 5*time.Millisecond, "first call in flight")

	field.SetValue("new")
	valid, err := f.ValidateField(context.Background(), field)
	require.NoError(t, err)
	assert.True(t, valid, "newest invocation is authoritative")

	select {
	case firstValid := <-firstDone:
		assert.True(t, firstValid, "superseded call reports a silent pass")
	case <-time.After(time.Second):
		t.Fatal("superseded call never settled")
	}
	close(release)

	state, _ := f.FieldState(field)
	assert.Equal(t, formkit.StateValid, state, "stale outcome never applied")
	assert.Zero(t, f.InFlightCount())
}

func TestAsyncResultCache(t *testing.T) {
	doc, formEl, f := newTestForm(t)

	var calls atomic.Int32
	require.NoError(t, f.Registry().RegisterAsync("counted", func(context.Context, string, string, dom.Element) (registry.Result, error) {
		calls.Add(1)
		return registry.Pass, nil
	}))
	field := addField(doc, formEl, "username", "counted", "alice")

	for i := 0; i < 3; i++ {
		valid, err := f.ValidateField(context.Background(), field)
		require.NoError(t, err)
		assert.True(t, valid)
	}
	assert.Equal(t, int32(1), calls.Load(), "same value validated once")

	field.SetValue("bob")
	_, err := f.ValidateField(context.Background(), field)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "new value invokes again")

	require.NoError(t, f.Reset())
	_, err = f.ValidateField(context.Background(), field)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load(), "reset clears cached results")
}

func TestAsyncUniqueScenario(t *testing.T) {
	doc, formEl, f := newTestForm(t)
	require.NoError(t, f.Registry().RegisterAsync("taken", func(_ context.Context, value, _ string, _ dom.Element) (registry.Result, error) {
		if value == "bob" {
			return registry.Fail("This value is already taken"), nil
		}
		return registry.Pass, nil
	}))
	field := addField(doc, formEl, "username", "required|taken", "bob")

	valid, err := f.ValidateField(context.Background(), field)
	require.NoError(t, err)
	assert.False(t, valid)
	_, msg := f.FieldState(field)
	assert.Equal(t, "This value is already taken", msg)

	field.SetValue("alice")
	valid, err = f.ValidateField(context.Background(), field)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestValidate_WholeForm(t *testing.T) {
	doc, formEl, f := newTestForm(t)
	addField(doc, formEl, "name", "required", "ada")
	addField(doc, formEl, "email", "required|email", "nope")
	addField(doc, formEl, "age", "numeric", "")

	valid, errs, err := f.Validate(context.Background())
	require.NoError(t, err)
	assert.False(t, valid)
	require.Len(t, errs, 1)
	assert.Equal(t, "Please enter a valid email address", errs["email"])
	assert.Equal(t, 1, f.ErrorCount())
	assert.False(t, f.IsValid())
}

func TestValidateGroup(t *testing.T) {
	doc, formEl, f := newTestForm(t)
	name := addField(doc, formEl, "name", "required", "")
	name.SetAttr(binder.AttrGroup, "profile")
	city := addField(doc, formEl, "city", "required", "berlin")
	city.SetAttr(binder.AttrGroup, "profile")
	card := addField(doc, formEl, "card", "required", "")
	card.SetAttr(binder.AttrGroup, "payment")

	valid, errs, err := f.ValidateGroup(context.Background(), "profile")
	require.NoError(t, err)
	assert.False(t, valid)
	assert.Len(t, errs, 1)
	state, _ := f.FieldState(card)
	assert.Equal(t, formkit.StateUnvalidated, state, "other groups untouched")

	t.Run("unknown group vacuously valid", func(t *testing.T) {
		valid, errs, err := f.ValidateGroup(context.Background(), "no-such-group")
		require.NoError(t, err)
		assert.True(t, valid)
		assert.Empty(t, errs)
	})

	t.Run("all groups", func(t *testing.T) {
		all, perGroup, err := f.ValidateAllGroups(context.Background())
		require.NoError(t, err)
		assert.False(t, all)
		assert.Len(t, perGroup, 2)
		assert.Len(t, perGroup["profile"], 1)
		assert.Len(t, perGroup["payment"], 1)
	})
}

func TestSetAndClearFieldError(t *testing.T) {
	doc, formEl, f := newTestForm(t)
	field := addField(doc, formEl, "email", "required", "x")

	sub := f.Events(events.TypeFieldValid, events.TypeFieldInvalid)
	defer sub.Close()

	require.NoError(t, f.SetFieldError(field, "server said no"))
	require.NoError(t, f.SetFieldError(field, "server said no"))
	state, msg := f.FieldState(field)
	assert.Equal(t, formkit.StateInvalid, state)
	assert.Equal(t, "server said no", msg)

	require.NoError(t, f.ClearFieldError(field))
	require.NoError(t, f.ClearFieldError(field))
	state, _ = f.FieldState(field)
	assert.Equal(t, formkit.StateValid, state)

	var got []events.Type
	for len(sub.Events()) > 0 {
		got = append(got, (<-sub.Events()).Type)
	}
	assert.Equal(t, []events.Type{events.TypeFieldInvalid, events.TypeFieldValid}, got,
		"repeated outcomes produce no duplicate notifications")
}

func TestReset(t *testing.T) {
	doc, formEl, f := newTestForm(t)
	field := addField(doc, formEl, "email", "required", "")

	_, err := f.ValidateField(context.Background(), field)
	require.NoError(t, err)
	require.Equal(t, 1, f.ErrorCount())

	require.NoError(t, f.Reset())
	assert.Zero(t, f.ErrorCount())
	state, _ := f.FieldState(field)
	assert.Equal(t, formkit.StateUnvalidated, state)
	assert.False(t, field.HasClass(binder.ClassInvalid))
	assert.False(t, field.HasClass(binder.ClassValid))
}

func TestDestroy(t *testing.T) {
	doc, formEl, f := newTestForm(t)
	field := addField(doc, formEl, "email", "required", "")

	f.Destroy()
	f.Destroy() // idempotent

	_, err := f.ValidateField(context.Background(), field)
	assert.ErrorIs(t, err, formkit.ErrInstanceDestroyed)
	_, _, err = f.Validate(context.Background())
	assert.ErrorIs(t, err, formkit.ErrInstanceDestroyed)
	assert.ErrorIs(t, f.Reset(), formkit.ErrInstanceDestroyed)
	assert.ErrorIs(t, f.SetFieldError(field, "x"), formkit.ErrInstanceDestroyed)
}

func TestSubmitInterception(t *testing.T) {
	doc := dom.NewMemoryDocument()
	formEl := doc.CreateElement("form")
	doc.Root().AppendChild(formEl)
	field := addField(doc, formEl, "email", "required", "")

	announcer := &a11y.RecordingAnnouncer{}
	f, err := formkit.New(context.Background(), doc, formEl,
		formkit.WithFlusher(binder.SyncFlusher{}),
		formkit.WithoutLiveValidation(),
		formkit.WithAnnouncer(announcer),
	)
	require.NoError(t, err)
	defer f.Destroy()

	ev := &dom.Event{Type: dom.EventSubmit}
	formEl.Dispatch(ev)
	assert.True(t, ev.DefaultPrevented(), "invalid form blocks submission")
	assert.Equal(t, field.ID(), doc.Focused().ID(), "first invalid field focused")

	entries := announcer.Announcements()
	require.NotEmpty(t, entries)
	last := entries[len(entries)-1]
	assert.True(t, last.Assertive)
	assert.Equal(t, "The form contains 1 invalid field", last.Message)

	field.SetValue("a@b.co")
	ev = &dom.Event{Type: dom.EventSubmit}
	formEl.Dispatch(ev)
	assert.False(t, ev.DefaultPrevented(), "valid form submits")
}

func TestLiveValidationDebounce(t *testing.T) {
	doc := dom.NewMemoryDocument()
	formEl := doc.CreateElement("form")
	doc.Root().AppendChild(formEl)
	field := addField(doc, formEl, "email", "required|email", "")

	f, err := formkit.New(context.Background(), doc, formEl,
		formkit.WithFlusher(binder.SyncFlusher{}),
		formkit.WithDebounce(10*time.Millisecond),
	)
	require.NoError(t, err)
	defer f.Destroy()

	field.SetValue("n")
	field.Dispatch(&dom.Event{Type: dom.EventInput})
	field.SetValue("no")
	field.Dispatch(&dom.Event{Type: dom.EventInput})

	assert.Eventually(t, func() bool {
		state, _ := f.FieldState(field)
		return state == formkit.StateInvalid
	}, time.Second, 5*time.Millisecond)
}

func TestConcurrentReconfigureAndValidate(t *testing.T) {
	doc := dom.NewMemoryDocument()
	formEl := doc.CreateElement("form")
	doc.Root().AppendChild(formEl)
	field := addField(doc, formEl, "email", "required|email", "a@b.co")

	f, err := formkit.New(context.Background(), doc, formEl,
		formkit.WithFlusher(binder.SyncFlusher{}),
		formkit.WithoutLiveValidation(),
		formkit.WithWatcherConfig(dom.WatcherConfig{Throttle: time.Millisecond}),
	)
	require.NoError(t, err)
	defer f.Destroy()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		rulesets := []string{"required", "required|email", "required|minlen:2"}
		for i := 0; i < 100; i++ {
			field.SetAttr(binder.AttrRules, rulesets[i%len(rulesets)])
			time.Sleep(time.Millisecond)
		}
	}()

	// The value satisfies every ruleset the writer flips between, so
	// any interleaving of reconfiguration and validation must agree.
	for i := 0; i < 500; i++ {
		valid, err := f.ValidateField(context.Background(), field)
		require.NoError(t, err)
		require.True(t, valid)
	}
	wg.Wait()
}

func TestSweep(t *testing.T) {
	doc, formEl, f := newTestForm(t, formkit.WithMaxInFlight(1))
	require.NoError(t, f.Registry().RegisterAsync("block", func(ctx context.Context, _, _ string, _ dom.Element) (registry.Result, error) {
		<-ctx.Done()
		return registry.Pass, ctx.Err()
	}))
	first := addField(doc, formEl, "first", "block", "a")
	second := addField(doc, formEl, "second", "block", "b")

	go f.ValidateField(context.Background(), first)
	require.Eventually(t, func() bool { return f.InFlightCount() == 1 },
		time.Second, 5*time.Millisecond)
	go f.ValidateField(context.Background(), second)
	require.Eventually(t, func() bool { return f.InFlightCount() == 2 },
		time.Second, 5*time.Millisecond)

	f.Sweep()
	assert.Equal(t, 1, f.InFlightCount(), "oldest in-flight call evicted")

	t.Run("departed fields released", func(t *testing.T) {
		first.Remove()
		second.Remove()
		require.Eventually(t, func() bool {
			f.Sweep()
			return f.InFlightCount() == 0
		}, time.Second, 10*time.Millisecond)
	})
}

func TestLanguagePersistence(t *testing.T) {
	store := storage.NewMemoryStore()
	doc, formEl, f := newTestForm(t, formkit.WithStore(store))
	addField(doc, formEl, "email", "required", "")
	require.Equal(t, "en", f.Language())

	require.NoError(t, f.SetLanguage(context.Background(), "en-US"))
	assert.Equal(t, "en", f.Language(), "tag matched against supported catalogs")

	persisted, ok, err := store.Get(context.Background(), "formkit:lang")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "en", persisted)

	assert.Error(t, f.SetLanguage(context.Background(), "not-a-tag"))
}

func TestDynamicFields(t *testing.T) {
	doc := dom.NewMemoryDocument()
	formEl := doc.CreateElement("form")
	doc.Root().AppendChild(formEl)

	f, err := formkit.New(context.Background(), doc, formEl,
		formkit.WithFlusher(binder.SyncFlusher{}),
		formkit.WithoutLiveValidation(),
		formkit.WithWatcherConfig(dom.WatcherConfig{Throttle: 10 * time.Millisecond}),
	)
	require.NoError(t, err)
	defer f.Destroy()

	late := addField(doc, formEl, "late", "required", "")
	require.Eventually(t, func() bool {
		_, err := f.ValidateField(context.Background(), late)
		return err == nil
	}, time.Second, 10*time.Millisecond, "late field picked up by mutation tracking")

	valid, errs, err := f.Validate(context.Background())
	require.NoError(t, err)
	assert.False(t, valid)
	assert.Contains(t, errs, "late")
}
