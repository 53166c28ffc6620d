package clyde

import (
	"sync"

	"github.com/Neumenon/clyde/binio"
	"github.com/Neumenon/clyde/shadow"
)

// FieldHook runs after a field segment has been read and before its values
// are assigned to inst. It sees the buffered values through d.Field and may
// rewrite them with d.SetField or set fields on inst directly.
type FieldHook func(numFields int, inst *shadow.Instance, d *Decoder) error

// EncodableHook decodes a class that writes its own binary layout. inst is a
// fresh clone of the class template.
type EncodableHook func(inst *shadow.Instance, r *binio.Reader) error

// registry maps class names to hooks. Lookups walk the base chain so a hook
// registered for a class also covers its subclasses; the most specific
// registration wins.
type registry[H any] struct {
	mu    sync.RWMutex
	hooks map[string]H
}

// Register sets the hook for a qualified class name.
func (g *registry[H]) Register(name string, h H) {
	g.mu.Lock()
	if g.hooks == nil {
		g.hooks = make(map[string]H)
	}
	g.hooks[name] = h
	g.mu.Unlock()
}

// Lookup returns the hook for t or its nearest base class.
func (g *registry[H]) Lookup(t *shadow.Template) (H, bool) {
	var zero H
	if g == nil {
		return zero, false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	for c := t; c != nil; c = c.Base() {
		if h, ok := g.hooks[c.Name()]; ok {
			return h, true
		}
	}
	return zero, false
}

// Len returns the number of registered hooks.
func (g *registry[H]) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.hooks)
}

// FieldHooks holds field-read hooks. The zero value is ready to use.
type FieldHooks struct {
	registry[FieldHook]
}

// EncodableHooks holds encodable decode hooks. The zero value is ready to
// use.
type EncodableHooks struct {
	registry[EncodableHook]
}

// NewFieldHooks returns an empty field-hook registry.
func NewFieldHooks() *FieldHooks { return &FieldHooks{} }

// NewEncodableHooks returns an empty encodable-hook registry.
func NewEncodableHooks() *EncodableHooks { return &EncodableHooks{} }
