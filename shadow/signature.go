package shadow

import (
	"fmt"
	"strings"
)

// Resolve maps a class name or JVM descriptor to a Type:
//
//	"I", "Z", ...              wrapper template
//	"Lcom.foo.Bar;", "com.foo.Bar"  template (fallback if unknown)
//	"java.util.ArrayList", ... container type
//	"[I", "[[Lcom.foo.Bar;"    array type, one '[' per dimension
//
// Package separators may be '.' or '/'.
func (r *Registry) Resolve(sig string) (Type, error) {
	sig = strings.ReplaceAll(strings.TrimSpace(sig), "/", ".")
	if sig == "" {
		return nil, &SchemaError{Reason: "empty signature"}
	}
	if sig[0] != '[' {
		return r.resolveElem(sig)
	}

	r.mu.RLock()
	a, ok := r.arrays[sig]
	r.mu.RUnlock()
	if ok {
		return a, nil
	}

	depth := strings.LastIndexByte(sig, '[') + 1
	inner := sig[depth:]
	if inner == "" {
		return nil, &SchemaError{Reason: fmt.Sprintf("array signature %q has no element type", sig)}
	}
	elem, err := r.resolveElem(inner)
	if err != nil {
		return nil, err
	}
	var t Type = elem
	for d := depth - 1; d >= 0; d-- {
		t = &ArrayType{elem: t, sig: sig[d:]}
	}
	a = t.(*ArrayType)

	r.mu.Lock()
	if prev, ok := r.arrays[sig]; ok {
		a = prev
	} else {
		r.arrays[sig] = a
	}
	r.mu.Unlock()
	return a, nil
}

func (r *Registry) resolveElem(sig string) (Type, error) {
	if len(sig) == 1 {
		if i := strings.IndexByte(BootstrapCodes, sig[0]); i >= 0 {
			t, _ := r.Lookup(BootstrapNames[i])
			return t, nil
		}
		return nil, &SchemaError{Reason: fmt.Sprintf("unknown primitive descriptor %q", sig)}
	}
	name := cleanName(sig)
	if c, ok := ContainerOf(name); ok {
		return c, nil
	}
	return r.Template(name), nil
}

// MustResolve is Resolve for signatures known to be well formed.
func (r *Registry) MustResolve(sig string) Type {
	t, err := r.Resolve(sig)
	if err != nil {
		panic(err)
	}
	return t
}
