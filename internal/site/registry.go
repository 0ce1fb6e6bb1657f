package site

import (
	"sync"

	"github.com/google/uuid"

	"bankena/internal/chat"
)

// Registry tracks visitors by their cookie id.
type Registry struct {
	factory chat.SessionFactory
	persist chat.PersistFunc

	mu       sync.Mutex
	visitors map[string]*Visitor
}

// NewRegistry builds an empty registry; every visitor's chat session is
// allocated from the given factory and persists through persist.
func NewRegistry(factory chat.SessionFactory, persist chat.PersistFunc) *Registry {
	return &Registry{
		factory:  factory,
		persist:  persist,
		visitors: make(map[string]*Visitor),
	}
}

// NewVisitorID mints a fresh visitor id.
func NewVisitorID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Visitor returns the state for id, creating it on first sight.
func (r *Registry) Visitor(id string) *Visitor {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.visitors[id]; ok {
		return v
	}
	v := newVisitor(id, r.factory, r.persist)
	r.visitors[id] = v
	return v
}

// Drop removes a visitor's state.
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.visitors, id)
}
