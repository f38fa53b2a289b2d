package dom

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryDocument is an in-memory Document with reactive mutation
// delivery. It backs the engine's tests and hosts that drive validation
// from their own tree representation.
type MemoryDocument struct {
	mu      sync.RWMutex
	root    *Node
	subs    map[string]func(Mutation)
	focused *Node
}

// NewMemoryDocument creates a document with an empty root element.
func NewMemoryDocument() *MemoryDocument {
	doc := &MemoryDocument{subs: make(map[string]func(Mutation))}
	doc.root = doc.newNode("body")
	doc.root.connected = true
	return doc
}

func (d *MemoryDocument) Root() Element { return d.root }

// CreateElement returns a detached node owned by this document.
func (d *MemoryDocument) CreateElement(tag string) Element {
	return d.newNode(tag)
}

func (d *MemoryDocument) newNode(tag string) *Node {
	return &Node{
		id:    uuid.NewString(),
		tag:   strings.ToLower(tag),
		attrs: make(map[string]string),
		doc:   d,
	}
}

func (d *MemoryDocument) FindAll(pred func(Element) bool) []Element {
	var out []Element
	Walk(d.root, func(el Element) {
		if pred(el) {
			out = append(out, el)
		}
	})
	return out
}

func (d *MemoryDocument) Contains(el Element) bool {
	for cur := el; cur != nil; cur = cur.Parent() {
		if cur.ID() == d.root.ID() {
			return true
		}
	}
	return false
}

// SubscribeMutations implements Observable.
func (d *MemoryDocument) SubscribeMutations(fn func(Mutation)) (cancel func()) {
	id := uuid.NewString()
	d.mu.Lock()
	d.subs[id] = fn
	d.mu.Unlock()
	return func() {
		d.mu.Lock()
		delete(d.subs, id)
		d.mu.Unlock()
	}
}

// Focused returns the element that last received focus, or nil.
func (d *MemoryDocument) Focused() Element {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.focused == nil {
		return nil
	}
	return d.focused
}

func (d *MemoryDocument) notify(m Mutation) {
	d.mu.RLock()
	subs := make([]func(Mutation), 0, len(d.subs))
	for _, fn := range d.subs {
		subs = append(subs, fn)
	}
	d.mu.RUnlock()
	for _, fn := range subs {
		fn(m)
	}
}

// Node is the in-memory Element implementation.
type Node struct {
	mu        sync.RWMutex
	id        string
	tag       string
	attrs     map[string]string
	value     string
	text      string
	classes   []string
	parent    *Node
	children  []*Node
	listeners map[EventType]map[string]Listener
	connected bool
	doc       *MemoryDocument
}

func (n *Node) ID() string  { return n.id }
func (n *Node) Tag() string { return n.tag }

func (n *Node) Name() string {
	v, _ := n.Attr("name")
	return v
}

func (n *Node) Attr(name string) (string, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	v, ok := n.attrs[name]
	return v, ok
}

func (n *Node) Attrs() map[string]string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make(map[string]string, len(n.attrs))
	for k, v := range n.attrs {
		out[k] = v
	}
	return out
}

func (n *Node) SetAttr(name, value string) {
	n.mu.Lock()
	prev, had := n.attrs[name]
	n.attrs[name] = value
	n.mu.Unlock()
	if !had || prev != value {
		n.doc.notify(Mutation{Type: MutationAttr, Target: n, Attr: name})
	}
}

func (n *Node) RemoveAttr(name string) {
	n.mu.Lock()
	_, had := n.attrs[name]
	delete(n.attrs, name)
	n.mu.Unlock()
	if had {
		n.doc.notify(Mutation{Type: MutationAttr, Target: n, Attr: name})
	}
}

func (n *Node) Value() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.value
}

func (n *Node) SetValue(value string) {
	n.mu.Lock()
	n.value = value
	n.mu.Unlock()
}

func (n *Node) Text() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.text
}

func (n *Node) SetText(text string) {
	n.mu.Lock()
	n.text = text
	n.mu.Unlock()
}

func (n *Node) AddClass(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, c := range n.classes {
		if c == name {
			return
		}
	}
	n.classes = append(n.classes, name)
}

func (n *Node) RemoveClass(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, c := range n.classes {
		if c == name {
			n.classes = append(n.classes[:i], n.classes[i+1:]...)
			return
		}
	}
}

func (n *Node) HasClass(name string) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, c := range n.classes {
		if c == name {
			return true
		}
	}
	return false
}

func (n *Node) Parent() Element {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *Node) Children() []Element {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]Element, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

func (n *Node) AppendChild(child Element) {
	c := child.(*Node)
	c.detach()
	n.mu.Lock()
	n.children = append(n.children, c)
	connected := n.connected
	n.mu.Unlock()
	c.attach(n, connected)
}

func (n *Node) InsertChildBefore(child, ref Element) {
	n.insertChild(child, ref, 0)
}

func (n *Node) InsertChildAfter(child, ref Element) {
	n.insertChild(child, ref, 1)
}

func (n *Node) insertChild(child, ref Element, offset int) {
	c := child.(*Node)
	c.detach()
	n.mu.Lock()
	idx := -1
	if ref != nil {
		for i, existing := range n.children {
			if existing.ID() == ref.ID() {
				idx = i + offset
				break
			}
		}
	}
	if idx < 0 || idx > len(n.children) {
		n.children = append(n.children, c)
	} else {
		n.children = append(n.children[:idx], append([]*Node{c}, n.children[idx:]...)...)
	}
	connected := n.connected
	n.mu.Unlock()
	c.attach(n, connected)
}

func (n *Node) attach(parent *Node, connected bool) {
	n.mu.Lock()
	n.parent = parent
	n.mu.Unlock()
	n.setConnected(connected)
	if connected {
		n.doc.notify(Mutation{Type: MutationAdded, Target: n})
	}
}

func (n *Node) Remove() {
	wasConnected := n.IsConnected()
	n.detach()
	n.setConnected(false)
	if wasConnected {
		n.doc.notify(Mutation{Type: MutationRemoved, Target: n})
	}
}

func (n *Node) detach() {
	n.mu.RLock()
	parent := n.parent
	n.mu.RUnlock()
	if parent == nil {
		return
	}
	parent.mu.Lock()
	for i, c := range parent.children {
		if c == n {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			break
		}
	}
	parent.mu.Unlock()
	n.mu.Lock()
	n.parent = nil
	n.mu.Unlock()
}

func (n *Node) setConnected(connected bool) {
	n.mu.Lock()
	n.connected = connected
	children := make([]*Node, len(n.children))
	copy(children, n.children)
	n.mu.Unlock()
	for _, c := range children {
		c.setConnected(connected)
	}
}

func (n *Node) Listen(t EventType, fn Listener) (remove func()) {
	id := uuid.NewString()
	n.mu.Lock()
	if n.listeners == nil {
		n.listeners = make(map[EventType]map[string]Listener)
	}
	if n.listeners[t] == nil {
		n.listeners[t] = make(map[string]Listener)
	}
	n.listeners[t][id] = fn
	n.mu.Unlock()
	return func() {
		n.mu.Lock()
		if m := n.listeners[t]; m != nil {
			delete(m, id)
		}
		n.mu.Unlock()
	}
}

func (n *Node) Dispatch(e *Event) {
	if e.Target == nil {
		e.Target = n
	}
	for cur := n; cur != nil; {
		cur.mu.RLock()
		fns := make([]Listener, 0, len(cur.listeners[e.Type]))
		for _, fn := range cur.listeners[e.Type] {
			fns = append(fns, fn)
		}
		parent := cur.parent
		cur.mu.RUnlock()
		for _, fn := range fns {
			fn(e)
		}
		if e.propagationDone {
			return
		}
		cur = parent
	}
}

// Validity implements a minimal native-constraint model: a "required"
// attribute with an empty value reports valueMissing, and a declared
// input type of email with a value lacking "@" reports typeMismatch.
func (n *Node) Validity() (bool, string) {
	if _, required := n.Attr("required"); required && strings.TrimSpace(n.Value()) == "" {
		return false, "valueMissing"
	}
	if t, _ := n.Attr("type"); t == "email" {
		if v := n.Value(); v != "" && !strings.Contains(v, "@") {
			return false, "typeMismatch"
		}
	}
	return true, ""
}

func (n *Node) IsConnected() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.connected
}

func (n *Node) Focus() {
	n.doc.mu.Lock()
	n.doc.focused = n
	n.doc.mu.Unlock()
}
