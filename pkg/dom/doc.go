// Package dom defines the narrow tree abstraction the validation engine
// consumes: elements with attributes, parent/child relations, value
// access, event dispatch, and an optional mutation-observation
// capability.
//
// The engine never talks to a concrete platform. A browser bridge, a
// server-rendered HTML tree, or the in-memory implementation shipped
// here (MemoryDocument/Node) can all satisfy the interfaces.
//
// # Mutation watching
//
// Documents that can push change notifications implement Observable.
// NewWatcher detects the capability at construction time and returns a
// reactive watcher with a short coalescing window; for documents without
// it, a polling watcher re-scans the subtree on a coarser interval and
// synthesizes mutations by diffing snapshots. Consumers only ever see
// the Watcher interface.
//
// # Usage
//
//	doc := dom.NewMemoryDocument()
//	field := doc.CreateElement("input")
//	field.SetAttr("name", "email")
//	doc.Root().AppendChild(field)
//
//	w := dom.NewWatcher(doc, doc.Root(), func(batch []dom.Mutation) {
//	    // react to coalesced tree changes
//	}, dom.WatcherConfig{})
//	w.Start()
//	defer w.Stop()
package dom
