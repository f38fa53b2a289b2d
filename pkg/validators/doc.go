// Package validators ships the built-in rule implementations and the
// remote/unique async validator builders.
//
// Built-ins are plain predicates over the field value; every rule
// except "required" passes on empty input so optional fields stay
// optional. None of them produce user-facing text: messages are
// resolved by the engine from per-field overrides and the i18n catalog.
//
// Remote validators run on a fetch-like Doer and fail only on an
// explicit negative server verdict; transport errors, non-2xx statuses
// and malformed bodies pass silently so infrastructure problems never
// block a form.
package validators
