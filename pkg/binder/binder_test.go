package binder_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formkit/pkg/binder"
	"github.com/dmitrymomot/formkit/pkg/dom"
	"github.com/dmitrymomot/formkit/pkg/rules"
)

func newForm(t *testing.T) (*dom.MemoryDocument, dom.Element) {
	t.Helper()
	doc := dom.NewMemoryDocument()
	form := doc.CreateElement("form")
	doc.Root().AppendChild(form)
	return doc, form
}

func newField(doc *dom.MemoryDocument, form dom.Element, name, ruleList string) dom.Element {
	field := doc.CreateElement("input")
	field.SetAttr("name", name)
	if ruleList != "" {
		field.SetAttr(binder.AttrRules, ruleList)
	}
	form.AppendChild(field)
	return field
}

func TestParseConfig(t *testing.T) {
	doc, form := newForm(t)
	field := newField(doc, form, "email", "required|email")
	field.SetAttr(binder.AttrCondition, "subscribe:true")
	field.SetAttr(binder.AttrGroup, "contact")
	field.SetAttr(binder.AttrErrorMessage, "fix this")
	field.SetAttr(binder.AttrMessagePrefix+"required", "email is required")

	cfg := binder.ParseConfig(field)
	assert.Equal(t, []rules.Rule{{Name: "required"}, {Name: "email"}}, cfg.Rules)
	assert.Equal(t, "subscribe:true", cfg.ValidateIf)
	assert.Equal(t, "contact", cfg.Group)
	assert.Equal(t, "fix this", cfg.ErrorMessage)
	assert.Equal(t, "email is required", cfg.CustomMessages["required"])
	assert.False(t, cfg.Ignore)

	t.Run("message precedence", func(t *testing.T) {
		assert.Equal(t, "fix this", cfg.MessageFor("required"), "field override wins")

		perRule := binder.Config{CustomMessages: map[string]string{"required": "custom"}}
		assert.Equal(t, "custom", perRule.MessageFor("required"))
		assert.Equal(t, "", perRule.MessageFor("email"), "catalog decides")
	})
}

func TestBinder_Scan(t *testing.T) {
	t.Run("registers matching fields", func(t *testing.T) {
		doc, form := newForm(t)
		email := newField(doc, form, "email", "required|email")
		newField(doc, form, "plain", "") // no rules
		ignored := newField(doc, form, "ignored", "required")
		ignored.SetAttr(binder.AttrIgnore, "")

		b, err := binder.New(doc, form, binder.WithFlusher(binder.SyncFlusher{}))
		require.NoError(t, err)
		defer b.Close()
		b.Scan()

		require.Len(t, b.Bindings(), 1)
		bind := b.Lookup(email)
		require.NotNil(t, bind)
		assert.Nil(t, bind.IsValid(), "unvalidated until first pass")
		assert.Nil(t, b.Lookup(ignored))
	})

	t.Run("nil form rejected", func(t *testing.T) {
		doc, _ := newForm(t)
		_, err := binder.New(doc, nil)
		assert.ErrorIs(t, err, binder.ErrNilForm)
	})
}

func TestBinder_ErrorContainer(t *testing.T) {
	t.Run("created after field by default", func(t *testing.T) {
		doc, form := newForm(t)
		field := newField(doc, form, "email", "required")

		b, err := binder.New(doc, form, binder.WithFlusher(binder.SyncFlusher{}))
		require.NoError(t, err)
		defer b.Close()
		b.Scan()

		bind := b.Lookup(field)
		container := bind.ErrorContainer()
		require.NotNil(t, container)
		assert.True(t, container.HasClass(binder.DefaultErrorClass))

		children := form.Children()
		require.Len(t, children, 2)
		assert.Equal(t, field.ID(), children[0].ID())
		assert.Equal(t, container.ID(), children[1].ID())

		live, _ := container.Attr("aria-live")
		assert.Equal(t, "polite", live)
	})

	t.Run("placement before", func(t *testing.T) {
		doc, form := newForm(t)
		field := newField(doc, form, "email", "required")

		b, err := binder.New(doc, form,
			binder.WithFlusher(binder.SyncFlusher{}),
			binder.WithPlacement(binder.PlacementBefore),
		)
		require.NoError(t, err)
		defer b.Close()
		b.Scan()

		children := form.Children()
		require.Len(t, children, 2)
		assert.Equal(t, field.ID(), children[1].ID())
	})

	t.Run("custom target reused, never duplicated", func(t *testing.T) {
		doc, form := newForm(t)
		target := doc.CreateElement("span")
		target.SetAttr("id", "email-errors")
		form.AppendChild(target)

		field := newField(doc, form, "email", "required")
		field.SetAttr(binder.AttrErrorTarget, "email-errors")

		b, err := binder.New(doc, form, binder.WithFlusher(binder.SyncFlusher{}))
		require.NoError(t, err)
		defer b.Close()
		b.Scan()

		bind := b.Lookup(field)
		assert.Equal(t, target.ID(), bind.ErrorContainer().ID())
		assert.Len(t, form.Children(), 2, "no extra container created")
	})
}

func TestBinder_ShowAndClearError(t *testing.T) {
	doc, form := newForm(t)
	field := newField(doc, form, "email", "required")

	b, err := binder.New(doc, form, binder.WithFlusher(binder.SyncFlusher{}))
	require.NoError(t, err)
	defer b.Close()
	b.Scan()
	bind := b.Lookup(field)

	b.ShowError(bind, "This field is required")
	container := bind.ErrorContainer()
	assert.Equal(t, "This field is required", container.Text())
	assert.True(t, field.HasClass(binder.ClassInvalid))
	ariaInvalid, _ := field.Attr("aria-invalid")
	assert.Equal(t, "true", ariaInvalid)
	describedBy, _ := field.Attr("aria-describedby")
	containerID, _ := container.Attr("id")
	assert.Equal(t, containerID, describedBy)
	require.NotNil(t, bind.IsValid())
	assert.False(t, *bind.IsValid())

	b.ClearError(bind)
	assert.Empty(t, container.Text())
	assert.False(t, field.HasClass(binder.ClassInvalid))
	assert.True(t, field.HasClass(binder.ClassValid))
	_, hasAria := field.Attr("aria-invalid")
	assert.False(t, hasAria)
	require.NotNil(t, bind.IsValid())
	assert.True(t, *bind.IsValid())

	b.ResetVisuals(bind)
	assert.False(t, field.HasClass(binder.ClassValid))
	assert.Nil(t, bind.IsValid())
}

func TestBinder_MutationTracking(t *testing.T) {
	t.Run("late-added field registered", func(t *testing.T) {
		doc, form := newForm(t)
		var added []string
		b, err := binder.New(doc, form,
			binder.WithFlusher(binder.SyncFlusher{}),
			binder.WithWatcherConfig(dom.WatcherConfig{Throttle: 10 * time.Millisecond}),
			binder.OnFieldAdded(func(bind *binder.Binding) {
				added = append(added, bind.Element.Name())
			}),
		)
		require.NoError(t, err)
		defer b.Close()
		b.Scan()

		newField(doc, form, "late", "required")
		assert.Eventually(t, func() bool { return len(added) == 1 && added[0] == "late" },
			time.Second, 10*time.Millisecond)
	})

	t.Run("removed field unbound", func(t *testing.T) {
		doc, form := newForm(t)
		field := newField(doc, form, "email", "required")

		removed := make(chan string, 1)
		b, err := binder.New(doc, form,
			binder.WithFlusher(binder.SyncFlusher{}),
			binder.WithWatcherConfig(dom.WatcherConfig{Throttle: 10 * time.Millisecond}),
			binder.OnFieldRemoved(func(bind *binder.Binding) { removed <- bind.Element.Name() }),
		)
		require.NoError(t, err)
		defer b.Close()
		b.Scan()
		require.Len(t, b.Bindings(), 1)

		field.Remove()
		select {
		case name := <-removed:
			assert.Equal(t, "email", name)
		case <-time.After(time.Second):
			t.Fatal("field removal not observed")
		}
		assert.Empty(t, b.Bindings())
	})

	t.Run("attribute change re-derives config", func(t *testing.T) {
		doc, form := newForm(t)
		field := newField(doc, form, "email", "required")

		changed := make(chan binder.Config, 1)
		b, err := binder.New(doc, form,
			binder.WithFlusher(binder.SyncFlusher{}),
			binder.WithWatcherConfig(dom.WatcherConfig{Throttle: 10 * time.Millisecond}),
			binder.OnFieldChanged(func(bind *binder.Binding) { changed <- bind.Config() }),
		)
		require.NoError(t, err)
		defer b.Close()
		b.Scan()

		field.SetAttr(binder.AttrRules, "required|email")
		select {
		case cfg := <-changed:
			assert.Equal(t, []rules.Rule{{Name: "required"}, {Name: "email"}}, cfg.Rules)
		case <-time.After(time.Second):
			t.Fatal("reconfiguration not observed")
		}
	})

	t.Run("self-teardown when form leaves document", func(t *testing.T) {
		doc, form := newForm(t)
		newField(doc, form, "email", "required")

		tornDown := make(chan struct{})
		b, err := binder.New(doc, form,
			binder.WithFlusher(binder.SyncFlusher{}),
			binder.WithWatcherConfig(dom.WatcherConfig{Throttle: 10 * time.Millisecond}),
			binder.OnTeardown(func() { close(tornDown) }),
		)
		require.NoError(t, err)
		b.Scan()

		form.Remove()
		select {
		case <-tornDown:
		case <-time.After(time.Second):
			t.Fatal("binder did not tear down")
		}
	})
}

func TestBinder_ConcurrentReconfigure(t *testing.T) {
	doc, form := newForm(t)
	field := newField(doc, form, "email", "required")

	b, err := binder.New(doc, form,
		binder.WithFlusher(binder.SyncFlusher{}),
		binder.WithWatcherConfig(dom.WatcherConfig{Throttle: time.Millisecond}),
	)
	require.NoError(t, err)
	defer b.Close()
	b.Scan()
	bind := b.Lookup(field)
	require.NotNil(t, bind)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			if i%2 == 0 {
				field.SetAttr(binder.AttrRules, "required|email")
			} else {
				field.SetAttr(binder.AttrRules, "required")
			}
			time.Sleep(time.Millisecond)
		}
	}()

	for i := 0; i < 500; i++ {
		cfg := bind.Config()
		require.NotEmpty(t, cfg.Rules)
		assert.Equal(t, "required", cfg.Rules[0].Name)
		b.ShowError(bind, "nope")
		require.NotNil(t, bind.ErrorContainer())
		b.ClearError(bind)
	}
	<-done
}

func TestFrameFlusher_Batches(t *testing.T) {
	f := binder.NewFrameFlusher(10 * time.Millisecond)
	defer f.Close()

	ch := make(chan int, 3)
	f.Enqueue(func() { ch <- 1 })
	f.Enqueue(func() { ch <- 2 })

	select {
	case first := <-ch:
		assert.Equal(t, 1, first)
		assert.Equal(t, 2, <-ch)
	case <-time.After(time.Second):
		t.Fatal("flush never happened")
	}
}

func TestSanitizeTemplate(t *testing.T) {
	assert.Equal(t, "<div class=\"err\"></div>",
		binder.SanitizeTemplate("<div class=\"err\"><script>alert(1)</script></div>"))
	assert.NotContains(t, binder.SanitizeTemplate(`<div onclick="steal()">x</div>`), "onclick")
	assert.NotContains(t, binder.SanitizeTemplate(`<a href="javascript:alert(1)">x</a>`), "javascript:")
}
