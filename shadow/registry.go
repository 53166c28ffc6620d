package shadow

import (
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Well-known class names.
const (
	ObjectClass     = "java.lang.Object"
	StringClass     = "java.lang.String"
	EncodableClass  = "com.threerings.export.Encodable"
	ExportableClass = "com.threerings.export.Exportable"
)

// BootstrapNames are the eight wrapper classes in the order the format
// pre-assigns them class ids 1 through 8.
var BootstrapNames = [8]string{
	"java.lang.Boolean", "java.lang.Byte", "java.lang.Character", "java.lang.Double",
	"java.lang.Float", "java.lang.Integer", "java.lang.Long", "java.lang.Short",
}

// BootstrapCodes are the JVM descriptor letters of BootstrapNames.
const BootstrapCodes = "ZBCDFIJS"

var bootstrapKinds = [8]ValueKind{
	KindBool, KindByte, KindChar, KindDouble, KindFloat, KindInt, KindLong, KindShort,
}

// Registry holds every template by qualified name. It is safe for concurrent
// use once the dumps have been loaded; unknown names may still be added as
// fallback templates at any time.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]*Template
	arrays    map[string]*ArrayType

	logger    *slog.Logger
	onUnknown func(*UnknownClassError)
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger that reports fallback templates.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithUnknownHandler registers a callback invoked once per synthesized
// fallback template.
func WithUnknownHandler(fn func(*UnknownClassError)) Option {
	return func(r *Registry) {
		r.onUnknown = fn
	}
}

// NewRegistry returns a registry holding only the wrapper classes,
// java.lang.Object and java.lang.String.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		templates: make(map[string]*Template),
		arrays:    make(map[string]*ArrayType),
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	for i, name := range BootstrapNames {
		t := newTemplate(r, name, TemplateClass, true, "", nil)
		t.prim = bootstrapKinds[i]
		r.templates[name] = t
	}
	r.templates[ObjectClass] = newTemplate(r, ObjectClass, TemplateClass, false, "", nil)
	r.templates[StringClass] = newTemplate(r, StringClass, TemplateClass, true, "", nil)
	return r
}

// ParseDump builds a registry from one schema dump.
func ParseDump(src io.Reader, opts ...Option) (*Registry, error) {
	r := NewRegistry(opts...)
	if err := r.Load(src); err != nil {
		return nil, err
	}
	return r, nil
}

// Lookup returns the template called name without synthesizing one.
func (r *Registry) Lookup(name string) (*Template, bool) {
	name = cleanName(name)
	r.mu.RLock()
	t, ok := r.templates[name]
	r.mu.RUnlock()
	return t, ok
}

// Template returns the template called name. An unknown name gets an empty,
// unsealed fallback class template, which is registered so later lookups
// return the same pointer, and is reported as an *UnknownClassError.
func (r *Registry) Template(name string) *Template {
	name = cleanName(name)
	if t, ok := r.Lookup(name); ok {
		return t
	}

	r.mu.Lock()
	t, ok := r.templates[name]
	if !ok {
		t = newTemplate(r, name, TemplateClass, false, "", nil)
		t.fallback = true
		r.templates[name] = t
	}
	r.mu.Unlock()

	if !ok {
		uerr := &UnknownClassError{Name: name}
		r.logger.Warn("unknown class, using fallback template", "class", name)
		if r.onUnknown != nil {
			r.onUnknown(uerr)
		}
	}
	return t
}

// ObjectTemplate returns the java.lang.Object template.
func (r *Registry) ObjectTemplate() *Template { return r.Template(ObjectClass) }

// StringTemplate returns the java.lang.String template.
func (r *Registry) StringTemplate() *Template { return r.Template(StringClass) }

// Bootstrap returns the wrapper template pre-assigned class id i (1-8).
func (r *Registry) Bootstrap(i int) (*Template, bool) {
	if i < 1 || i > len(BootstrapNames) {
		return nil, false
	}
	return r.Lookup(BootstrapNames[i-1])
}

// Len returns the number of templates, fallbacks included.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.templates)
}

// Names returns every template name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.templates))
	for n := range r.templates {
		out = append(out, n)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Fallbacks returns the names of synthesized templates, sorted.
func (r *Registry) Fallbacks() []string {
	r.mu.RLock()
	var out []string
	for n, t := range r.templates {
		if t.fallback {
			out = append(out, n)
		}
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

// cleanName strips an "L...;" wrapper and normalizes '/' package separators.
func cleanName(name string) string {
	if len(name) > 2 && name[0] == 'L' && name[len(name)-1] == ';' {
		name = name[1 : len(name)-1]
	}
	return strings.ReplaceAll(name, "/", ".")
}
