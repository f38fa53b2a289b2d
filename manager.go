package formkit

import (
	"context"
	"sync"

	"github.com/dmitrymomot/formkit/pkg/dom"
)

// AttrDiscover marks a form element for automatic instance attachment
// by Manager.Discover.
const AttrDiscover = "data-formkit"

// Manager tracks validation instances across a document, keyed by form
// element identity.
type Manager struct {
	mu    sync.RWMutex
	forms map[string]*Form
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{forms: make(map[string]*Form)}
}

// Discover creates and attaches an instance for every form element
// carrying the discovery attribute that is not already attached. The
// given options apply to each created instance.
func (m *Manager) Discover(ctx context.Context, doc dom.Document, opts ...Option) ([]*Form, error) {
	candidates := doc.FindAll(func(el dom.Element) bool {
		if el.Tag() != "form" {
			return false
		}
		_, ok := el.Attr(AttrDiscover)
		return ok
	})

	var created []*Form
	for _, el := range candidates {
		if m.LookupByID(el.ID()) != nil {
			continue
		}
		f, err := New(ctx, doc, el, opts...)
		if err != nil {
			for _, c := range created {
				c.Destroy()
				m.Detach(c)
			}
			return nil, err
		}
		m.Attach(f)
		created = append(created, f)
	}
	return created, nil
}

// Attach registers an instance, replacing any previous instance bound
// to the same form element.
func (m *Manager) Attach(f *Form) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forms[f.ID()] = f
}

// Lookup returns the instance bound to the form element, or nil.
func (m *Manager) Lookup(form dom.Element) *Form {
	if form == nil {
		return nil
	}
	return m.LookupByID(form.ID())
}

// LookupByID returns the instance bound to the form identity, or nil.
func (m *Manager) LookupByID(id string) *Form {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.forms[id]
}

// Forms returns a snapshot of attached instances.
func (m *Manager) Forms() []*Form {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Form, 0, len(m.forms))
	for _, f := range m.forms {
		out = append(out, f)
	}
	return out
}

// Detach forgets an instance without destroying it.
func (m *Manager) Detach(f *Form) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forms[f.ID()] == f {
		delete(m.forms, f.ID())
	}
}

// DetachAll forgets every attached instance without destroying any.
func (m *Manager) DetachAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.forms)
}

// DestroyAll destroys and forgets every attached instance.
func (m *Manager) DestroyAll() {
	m.mu.Lock()
	forms := m.forms
	m.forms = make(map[string]*Form)
	m.mu.Unlock()
	for _, f := range forms {
		f.Destroy()
	}
}
