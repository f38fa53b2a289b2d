package binder

import (
	"strings"

	"github.com/dmitrymomot/formkit/pkg/dom"
	"github.com/dmitrymomot/formkit/pkg/rules"
)

// Attribute names forming the declarative configuration surface.
const (
	// AttrRules carries the pipe-delimited rule list.
	AttrRules = "data-validate"
	// AttrCondition holds a "field:value" conditional; the field is only
	// validated while the referenced control carries the expected value.
	AttrCondition = "data-validate-if"
	// AttrGroup assigns the field to a named validation group.
	AttrGroup = "data-validate-group"
	// AttrErrorMessage overrides every rule message for the field.
	AttrErrorMessage = "data-error-message"
	// AttrErrorTarget names the id of an existing element to render
	// errors into instead of creating a container.
	AttrErrorTarget = "data-error-target"
	// AttrIgnore opts the field out of validation entirely.
	AttrIgnore = "data-validate-ignore"
	// AttrMessagePrefix + rule name overrides the message for one rule,
	// e.g. data-error-msg-required.
	AttrMessagePrefix = "data-error-msg-"
)

// WatchedAttrs are the attributes whose mutation re-derives a field's
// configuration.
var WatchedAttrs = []string{AttrRules, AttrCondition, AttrGroup, AttrErrorMessage, AttrErrorTarget, AttrIgnore}

// Config is a field's validation configuration, derived once from
// element attributes at attach time and re-derived when a watched
// attribute mutates.
type Config struct {
	Rules          []rules.Rule
	ValidateIf     string
	Group          string
	ErrorMessage   string
	ErrorTarget    string
	CustomMessages map[string]string
	Ignore         bool
}

// ParseConfig derives a field's configuration from its attributes.
func ParseConfig(el dom.Element) Config {
	cfg := Config{}
	if v, ok := el.Attr(AttrRules); ok {
		cfg.Rules = rules.Parse(v)
	}
	if v, ok := el.Attr(AttrCondition); ok {
		cfg.ValidateIf = strings.TrimSpace(v)
	}
	if v, ok := el.Attr(AttrGroup); ok {
		cfg.Group = strings.TrimSpace(v)
	}
	if v, ok := el.Attr(AttrErrorMessage); ok {
		cfg.ErrorMessage = v
	}
	if v, ok := el.Attr(AttrErrorTarget); ok {
		cfg.ErrorTarget = strings.TrimSpace(v)
	}
	if _, ok := el.Attr(AttrIgnore); ok {
		cfg.Ignore = true
	}

	for name, v := range el.Attrs() {
		if rule, ok := strings.CutPrefix(name, AttrMessagePrefix); ok && rule != "" {
			if cfg.CustomMessages == nil {
				cfg.CustomMessages = make(map[string]string)
			}
			cfg.CustomMessages[rule] = v
		}
	}
	return cfg
}

// MessageFor resolves the configured override for a rule: the global
// field override wins, then the per-rule custom message. Empty when the
// catalog should decide.
func (c Config) MessageFor(rule string) string {
	if c.ErrorMessage != "" {
		return c.ErrorMessage
	}
	return c.CustomMessages[rule]
}
