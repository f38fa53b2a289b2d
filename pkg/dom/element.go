package dom

// EventType identifies a category of tree events.
type EventType string

const (
	EventChange EventType = "change"
	EventInput  EventType = "input"
	EventBlur   EventType = "blur"
	EventSubmit EventType = "submit"
)

// Event is dispatched against an element and bubbles to its ancestors
// until stopped. Listeners receive a pointer so they can mark the event
// as handled or prevent its default action.
type Event struct {
	Type   EventType
	Target Element

	defaultPrevented bool
	propagationDone  bool
}

// PreventDefault marks the event so the dispatcher skips the default action.
func (e *Event) PreventDefault() { e.defaultPrevented = true }

// DefaultPrevented reports whether a listener called PreventDefault.
func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }

// StopPropagation prevents the event from bubbling further up the tree.
func (e *Event) StopPropagation() { e.propagationDone = true }

// Listener handles a dispatched event.
type Listener func(e *Event)

// Element is the narrow view of a tree node the validation engine needs.
// It is intentionally platform-agnostic: a browser bridge, a server-side
// HTML tree, or the in-memory implementation in this package can all
// satisfy it.
type Element interface {
	// ID returns a stable identity for the element, unique within its
	// document for the element's lifetime.
	ID() string
	// Tag returns the element's tag name (lower case).
	Tag() string
	// Name returns the form-control name ("name" attribute, may be empty).
	Name() string

	Attr(name string) (string, bool)
	Attrs() map[string]string
	SetAttr(name, value string)
	RemoveAttr(name string)

	Value() string
	SetValue(value string)
	Text() string
	SetText(text string)

	AddClass(name string)
	RemoveClass(name string)
	HasClass(name string) bool

	Parent() Element
	Children() []Element
	AppendChild(child Element)
	// InsertChildBefore inserts child among the receiver's children,
	// immediately before ref. If ref is not a child, child is appended.
	InsertChildBefore(child, ref Element)
	// InsertChildAfter inserts child among the receiver's children,
	// immediately after ref. If ref is not a child, child is appended.
	InsertChildAfter(child, ref Element)
	// Remove detaches the element (and its subtree) from its parent.
	Remove()

	// Listen registers a listener for the given event type and returns a
	// function that removes it.
	Listen(t EventType, fn Listener) (remove func())
	// Dispatch delivers the event to the element's listeners and bubbles
	// it to ancestors unless propagation is stopped.
	Dispatch(e *Event)

	// Validity exposes native constraint state: ok is false when the
	// platform considers the current value invalid, with a short reason
	// code such as "valueMissing" or "typeMismatch".
	Validity() (ok bool, reason string)

	// IsConnected reports whether the element is attached to its document.
	IsConnected() bool

	// Focus moves input focus to the element, if the platform supports it.
	Focus()
}

// Document is the tree root the engine scans and watches.
type Document interface {
	Root() Element
	CreateElement(tag string) Element
	// FindAll walks the tree depth-first and returns every element the
	// predicate accepts.
	FindAll(pred func(Element) bool) []Element
	// Contains reports whether the element is part of this document.
	Contains(el Element) bool
}

// ByID returns the element with the given "id" attribute, or nil.
func ByID(doc Document, id string) Element {
	if id == "" {
		return nil
	}
	matches := doc.FindAll(func(el Element) bool {
		v, _ := el.Attr("id")
		return v == id
	})
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}

// ByName returns the first descendant of root whose form-control name
// matches, or nil. Used for cross-field rules and conditional validation.
func ByName(root Element, name string) Element {
	if name == "" {
		return nil
	}
	return findFirst(root, func(el Element) bool { return el.Name() == name })
}

func findFirst(el Element, pred func(Element) bool) Element {
	if pred(el) {
		return el
	}
	for _, child := range el.Children() {
		if found := findFirst(child, pred); found != nil {
			return found
		}
	}
	return nil
}

// Walk visits el and every descendant depth-first.
func Walk(el Element, visit func(Element)) {
	visit(el)
	for _, child := range el.Children() {
		Walk(child, visit)
	}
}
