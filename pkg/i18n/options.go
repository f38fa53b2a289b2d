package i18n

import (
	"encoding/json"
	"errors"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/formkit/pkg/storage"
)

// Option configures a Translator during construction.
type Option func(*Translator) error

// WithDefaultLanguage changes the fallback language. A catalog for it
// must exist by the time New returns.
func WithDefaultLanguage(lang string) Option {
	return func(t *Translator) error {
		if lang == "" {
			return errors.New("i18n: empty default language")
		}
		t.defaultLang = lang
		return nil
	}
}

// WithLanguage presets the active language without persisting it.
func WithLanguage(lang string) Option {
	return func(t *Translator) error {
		t.lang = lang
		return nil
	}
}

// WithCatalog merges entries into the catalog for lang.
func WithCatalog(lang string, entries map[string]string) Option {
	return func(t *Translator) error {
		if lang == "" {
			return errors.New("i18n: empty catalog language")
		}
		t.merge(lang, entries)
		return nil
	}
}

// WithYAML merges catalogs parsed from YAML content shaped as
//
//	en:
//	  required: "This field is required"
//	de:
//	  required: "Dieses Feld ist erforderlich"
func WithYAML(content []byte) Option {
	return func(t *Translator) error {
		var data map[string]map[string]string
		if err := yaml.Unmarshal(content, &data); err != nil {
			return errors.Join(ErrInvalidCatalog, err)
		}
		for lang, entries := range data {
			t.merge(lang, entries)
		}
		return nil
	}
}

// WithJSON merges catalogs parsed from JSON content with the same shape
// as WithYAML.
func WithJSON(content []byte) Option {
	return func(t *Translator) error {
		var data map[string]map[string]string
		if err := json.Unmarshal(content, &data); err != nil {
			return errors.Join(ErrInvalidCatalog, err)
		}
		for lang, entries := range data {
			t.merge(lang, entries)
		}
		return nil
	}
}

// WithStore wires the key-value collaborator the language preference is
// persisted to.
func WithStore(store storage.Store) Option {
	return func(t *Translator) error {
		t.store = store
		return nil
	}
}

// WithStoreKey overrides the storage key for the persisted preference.
func WithStoreKey(key string) Option {
	return func(t *Translator) error {
		if key == "" {
			return errors.New("i18n: empty store key")
		}
		t.storeKey = key
		return nil
	}
}

// WithLogger sets the logger for missing-translation and persistence
// warnings. Nil loggers are ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Translator) error {
		if logger != nil {
			t.logger = logger
		}
		return nil
	}
}
