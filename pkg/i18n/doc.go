// Package i18n resolves user-facing validation messages from
// per-language catalogs.
//
// Catalogs are flat key-to-template maps loadable from Go maps, YAML,
// or JSON, merged over a built-in English catalog that covers every
// built-in rule. Templates interpolate %{name} placeholders; the engine
// passes %{field} and %{param} for rule messages.
//
// Language selection matches requested tags against supported catalogs
// with golang.org/x/text matching, so a request for "en-US" lands on an
// "en" catalog. The active preference can be persisted across sessions
// through the storage collaborator; it is the only state the engine
// persists.
package i18n
