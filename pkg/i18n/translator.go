package i18n

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"sync"

	"golang.org/x/text/language"

	"github.com/dmitrymomot/formkit/pkg/storage"
)

// DefaultLanguage is used when no preference is configured or persisted.
const DefaultLanguage = "en"

// DefaultStoreKey is the storage key the language preference lives under.
const DefaultStoreKey = "formkit:lang"

var placeholderRe = regexp.MustCompile(`%\{(\w+)\}`)

// Translator resolves validation messages from per-language catalogs
// with %{name} placeholder interpolation. Lookup falls back from the
// active language to the default language and finally to the key
// itself, so a missing translation never produces an empty message.
type Translator struct {
	mu          sync.RWMutex
	catalogs    map[string]map[string]string
	defaultLang string
	lang        string
	store       storage.Store
	storeKey    string
	logger      *slog.Logger
}

// New creates a Translator carrying the built-in English catalog plus
// any catalogs supplied through options. When a storage collaborator is
// configured, a previously persisted language preference is restored.
func New(ctx context.Context, opts ...Option) (*Translator, error) {
	t := &Translator{
		catalogs:    map[string]map[string]string{DefaultLanguage: builtinEnglish()},
		defaultLang: DefaultLanguage,
		storeKey:    DefaultStoreKey,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	if t.lang == "" {
		t.lang = t.defaultLang
	}
	if _, ok := t.catalogs[t.defaultLang]; !ok {
		return nil, &ErrLanguageNotSupported{Lang: t.defaultLang}
	}

	if t.store != nil {
		persisted, ok, err := t.store.Get(ctx, t.storeKey)
		if err != nil {
			t.logger.WarnContext(ctx, "failed to load persisted language preference", "error", err)
		} else if ok {
			if lang, err := t.match(persisted); err == nil {
				t.lang = lang
			} else {
				t.logger.WarnContext(ctx, "persisted language not supported", "lang", persisted)
			}
		}
	}

	return t, nil
}

// SupportedLanguages lists languages with a catalog, sorted.
func (t *Translator) SupportedLanguages() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	langs := make([]string, 0, len(t.catalogs))
	for lang := range t.catalogs {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Language returns the active language.
func (t *Translator) Language() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lang
}

// SetLanguage switches the active language, matching the requested tag
// against supported catalogs (so "en-US" resolves to an "en" catalog),
// and persists the preference when a store is configured.
func (t *Translator) SetLanguage(ctx context.Context, lang string) error {
	matched, err := t.match(lang)
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.lang = matched
	store := t.store
	key := t.storeKey
	t.mu.Unlock()

	if store != nil {
		if err := store.Set(ctx, key, matched); err != nil {
			t.logger.WarnContext(ctx, "failed to persist language preference", "lang", matched, "error", err)
		}
	}
	return nil
}

// match resolves a requested tag to a supported catalog language using
// x/text matching.
func (t *Translator) match(lang string) (string, error) {
	requested, err := language.Parse(lang)
	if err != nil {
		return "", &ErrLanguageNotSupported{Lang: lang}
	}

	supported := t.SupportedLanguages()
	tags := make([]language.Tag, 0, len(supported))
	codes := make([]string, 0, len(supported))
	for _, code := range supported {
		tag, err := language.Parse(code)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		codes = append(codes, code)
	}
	if len(tags) == 0 {
		return "", &ErrLanguageNotSupported{Lang: lang}
	}

	matcher := language.NewMatcher(tags)
	_, idx, conf := matcher.Match(requested)
	if conf == language.No {
		return "", &ErrLanguageNotSupported{Lang: lang}
	}
	return codes[idx], nil
}

// T resolves the message template for key in the active language and
// interpolates %{name} placeholders from args. Unknown placeholders are
// left intact so broken templates stay visible.
func (t *Translator) T(key string, args map[string]any) string {
	t.mu.RLock()
	lang := t.lang
	template, ok := t.lookup(lang, key)
	if !ok && lang != t.defaultLang {
		template, ok = t.lookup(t.defaultLang, key)
	}
	t.mu.RUnlock()

	if !ok {
		t.logger.Warn("missing translation", "key", key, "lang", lang)
		template = key
	}
	return Interpolate(template, args)
}

// Has reports whether the key resolves in the active or default catalog.
func (t *Translator) Has(key string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if _, ok := t.lookup(t.lang, key); ok {
		return true
	}
	_, ok := t.lookup(t.defaultLang, key)
	return ok
}

// Must be called with at least a read lock held.
func (t *Translator) lookup(lang, key string) (string, bool) {
	catalog, ok := t.catalogs[lang]
	if !ok {
		return "", false
	}
	template, ok := catalog[key]
	return template, ok
}

// merge adds entries to a language catalog, creating it when absent.
func (t *Translator) merge(lang string, entries map[string]string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	catalog, ok := t.catalogs[lang]
	if !ok {
		catalog = make(map[string]string, len(entries))
		t.catalogs[lang] = catalog
	}
	for k, v := range entries {
		catalog[k] = v
	}
}

// Interpolate replaces %{name} placeholders in template with values
// from args.
func Interpolate(template string, args map[string]any) string {
	if len(args) == 0 {
		return template
	}
	return placeholderRe.ReplaceAllStringFunc(template, func(m string) string {
		name := placeholderRe.FindStringSubmatch(m)[1]
		if v, ok := args[name]; ok {
			return fmt.Sprint(v)
		}
		return m
	})
}
