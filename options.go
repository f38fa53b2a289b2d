package formkit

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/formkit/pkg/a11y"
	"github.com/dmitrymomot/formkit/pkg/binder"
	"github.com/dmitrymomot/formkit/pkg/dom"
	"github.com/dmitrymomot/formkit/pkg/i18n"
	"github.com/dmitrymomot/formkit/pkg/registry"
	"github.com/dmitrymomot/formkit/pkg/storage"
)

type config struct {
	registry   *registry.Registry
	translator *i18n.Translator
	store      storage.Store
	announcer  a11y.Announcer
	focus      a11y.FocusManager
	logger     *slog.Logger

	binderOpts []binder.Option

	debounce       time.Duration
	sweepInterval  time.Duration
	inflightMaxAge time.Duration
	maxInFlight    int
	maxStates      int
	eventBuffer    int

	nativeValidation bool
	interceptSubmit  bool
	liveValidation   bool
}

func defaultConfig() config {
	return config{
		announcer:       a11y.NopAnnouncer{},
		focus:           a11y.ElementFocus{},
		debounce:        300 * time.Millisecond,
		sweepInterval:   30 * time.Second,
		inflightMaxAge:  30 * time.Second,
		maxInFlight:     100,
		maxStates:       1000,
		eventBuffer:     64,
		interceptSubmit: true,
		liveValidation:  true,
	}
}

// Option configures a Form instance.
type Option func(*config)

// WithRegistry replaces the instance validator registry. The registry
// should usually be parented on registry.Global so built-in rules keep
// resolving.
func WithRegistry(r *registry.Registry) Option {
	return func(c *config) { c.registry = r }
}

// WithTranslator supplies a message translator; without one, a
// translator with the built-in English catalog is created.
func WithTranslator(t *i18n.Translator) Option {
	return func(c *config) { c.translator = t }
}

// WithStore wires the key-value collaborator the language preference is
// persisted to. Ignored when WithTranslator is also given.
func WithStore(s storage.Store) Option {
	return func(c *config) { c.store = s }
}

// WithAnnouncer sets the screen-reader announcement collaborator.
func WithAnnouncer(a a11y.Announcer) Option {
	return func(c *config) {
		if a != nil {
			c.announcer = a
		}
	}
}

// WithFocusManager sets the collaborator that moves focus to invalid
// fields after a blocked submission.
func WithFocusManager(fm a11y.FocusManager) Option {
	return func(c *config) {
		if fm != nil {
			c.focus = fm
		}
	}
}

// WithLogger sets the logger for configuration warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithFlusher replaces the binder's per-frame write flusher.
func WithFlusher(f binder.Flusher) Option {
	return func(c *config) { c.binderOpts = append(c.binderOpts, binder.WithFlusher(f)) }
}

// WithPlacement positions created error containers relative to fields.
func WithPlacement(p binder.Placement) Option {
	return func(c *config) { c.binderOpts = append(c.binderOpts, binder.WithPlacement(p)) }
}

// WithErrorTemplate customizes created error containers; values are
// scrubbed of script-like constructs.
func WithErrorTemplate(tag, class string) Option {
	return func(c *config) { c.binderOpts = append(c.binderOpts, binder.WithErrorTemplate(tag, class)) }
}

// WithWatcherConfig tunes mutation batching and the polling fallback.
func WithWatcherConfig(cfg dom.WatcherConfig) Option {
	return func(c *config) { c.binderOpts = append(c.binderOpts, binder.WithWatcherConfig(cfg)) }
}

// WithDebounce sets the per-field live-validation debounce window.
func WithDebounce(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.debounce = d
		}
	}
}

// WithSweepInterval sets how often the periodic cleanup runs.
func WithSweepInterval(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.sweepInterval = d
		}
	}
}

// WithInFlightMaxAge sets the age past which an outstanding async
// validation is aborted and discarded by the sweep.
func WithInFlightMaxAge(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.inflightMaxAge = d
		}
	}
}

// WithMaxInFlight caps concurrent async validation bookkeeping; the
// sweep discards the oldest entries beyond the cap.
func WithMaxInFlight(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxInFlight = n
		}
	}
}

// WithMaxStates caps retained per-field outcomes; the sweep discards
// the oldest entries beyond the cap.
func WithMaxStates(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxStates = n
		}
	}
}

// WithEventBuffer sets the per-subscriber event buffer size.
func WithEventBuffer(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.eventBuffer = n
		}
	}
}

// WithNativeValidation checks the platform's constraint state before
// custom rules; a native violation short-circuits the rule list.
func WithNativeValidation() Option {
	return func(c *config) { c.nativeValidation = true }
}

// WithoutSubmitInterception leaves form submission alone even when
// fields are invalid.
func WithoutSubmitInterception() Option {
	return func(c *config) { c.interceptSubmit = false }
}

// WithoutLiveValidation disables validate-on-change/blur; validation
// then only runs through the programmatic API and submit interception.
func WithoutLiveValidation() Option {
	return func(c *config) { c.liveValidation = false }
}
