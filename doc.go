// Package formkit is a declarative form-validation engine. Fields
// declare their rules in a data-validate attribute as a pipe-delimited
// list ("required|email|minlen:8"); an instance bound to a form parses
// those declarations, runs the matching validators in order with the
// first failure winning, and renders outcomes as error text, state
// classes, and ARIA attributes in one batched write per frame.
//
// # Usage
//
//	doc := dom.NewMemoryDocument()
//	// ... build or adapt a document with a form subtree ...
//	form, err := formkit.New(ctx, doc, formEl)
//	if err != nil {
//		return err
//	}
//	defer form.Destroy()
//
//	valid, errs, err := form.Validate(ctx)
//
// Validators live in registries: built-ins (required, email, min,
// regex, remote, ...) register globally once, and each instance carries
// its own registry parented on the global one so custom rules can be
// scoped per form:
//
//	form.Registry().RegisterFunc("even", func(ctx context.Context, value, params string, field dom.Element) (registry.Result, error) {
//		n, err := strconv.Atoi(value)
//		if err != nil || n%2 != 0 {
//			return registry.Fail("Must be an even number"), nil
//		}
//		return registry.Pass, nil
//	})
//
// Validators registered async run under a supersession protocol: one
// authoritative call per (field, rule) at a time, predecessors
// cancelled, stale results silently discarded. Results are cached by
// (rule, value, params) with a bounded TTL cache so repeated
// validation of unchanged values never re-invokes a remote check.
//
// Instances validate live on change and blur (debounced), intercept
// submission while fields are invalid, track fields added to or
// removed from the form at runtime, and tear themselves down when the
// form leaves the document. A periodic sweep bounds the in-flight and
// state bookkeeping of long-lived pages.
package formkit
