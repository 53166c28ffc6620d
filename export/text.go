package export

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/Neumenon/clyde/shadow"
)

// TextOptions configures the text dump.
type TextOptions struct {
	// Indent string per nesting level (default: "  ")
	Indent string

	// SortFields sorts object fields by name instead of declaration order
	SortFields bool

	// MaxDepth stops descending below this depth; 0 means unlimited
	MaxDepth int
}

// Text writes an indented, human-readable dump of vals, one root after
// another. Shared references are marked "#id" where first written and
// "^id" afterwards.
func Text(w io.Writer, vals []shadow.Value, opts TextOptions) error {
	if opts.Indent == "" {
		opts.Indent = "  "
	}
	e := &textEmitter{opts: opts, g: newGraph(vals)}
	for _, v := range vals {
		e.emit(v, 0)
		e.sb.WriteString("\n")
	}
	_, err := io.WriteString(w, e.sb.String())
	return err
}

// TextString is Text into a string.
func TextString(v shadow.Value, opts TextOptions) string {
	var sb strings.Builder
	_ = Text(&sb, []shadow.Value{v}, opts)
	return strings.TrimSuffix(sb.String(), "\n")
}

type textEmitter struct {
	sb   strings.Builder
	opts TextOptions
	g    *graph
}

func (e *textEmitter) emit(v shadow.Value, depth int) {
	switch v.Kind() {
	case shadow.KindNull:
		e.sb.WriteString("null")
	case shadow.KindString:
		s, _ := v.AsString()
		e.sb.WriteString(strconv.Quote(s))
	case shadow.KindFloat:
		f, _ := v.AsFloat()
		e.emitFloat(float64(f), 32)
	case shadow.KindDouble:
		f, _ := v.AsDouble()
		e.emitFloat(f, 64)
	case shadow.KindEnum:
		en, _ := v.AsEnum()
		e.sb.WriteString(en.String())
	case shadow.KindPrimitives:
		p, _ := v.AsPrimitives()
		e.sb.WriteString(fmt.Sprint(p))
	case shadow.KindObject:
		in, _ := v.AsObject()
		e.emitObject(in, depth)
	case shadow.KindArray:
		a, _ := v.AsArray()
		e.emitList(a, a.Type().Signature(), a.Values(), depth)
	case shadow.KindCollection:
		c, _ := v.AsCollection()
		switch c.Type().Kind() {
		case shadow.ContainerList, shadow.ContainerSet:
			e.emitList(c, c.Type().Signature(), c.Elems(), depth)
		default:
			e.emitEntries(c, depth)
		}
	default:
		e.sb.WriteString(v.String())
	}
}

func (e *textEmitter) emitFloat(f float64, bits int) {
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if !math.IsNaN(f) && !math.IsInf(f, 0) && !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	e.sb.WriteString(s)
}

// header writes the class and id marker of a reference and reports whether
// its body should follow.
func (e *textEmitter) header(key any, class string, depth int) bool {
	id, first := e.g.id(key)
	if !first {
		fmt.Fprintf(&e.sb, "^%d", id)
		return false
	}
	e.sb.WriteString(class)
	if id > 0 {
		fmt.Fprintf(&e.sb, " #%d", id)
	}
	if e.opts.MaxDepth > 0 && depth >= e.opts.MaxDepth {
		e.sb.WriteString(" ...")
		return false
	}
	return true
}

func (e *textEmitter) emitObject(in *shadow.Instance, depth int) {
	if !e.header(in, in.Template().Name(), depth) {
		return
	}
	fields := in.Fields()
	if e.opts.SortFields {
		sort.SliceStable(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
	}
	if len(fields) == 0 {
		e.sb.WriteString(" {}")
		return
	}
	e.sb.WriteString(" {\n")
	for _, f := range fields {
		e.writeIndent(depth + 1)
		e.sb.WriteString(f.Name)
		e.sb.WriteString(" = ")
		e.emit(f.Value, depth+1)
		e.sb.WriteString("\n")
	}
	e.writeIndent(depth)
	e.sb.WriteString("}")
}

func (e *textEmitter) emitList(key any, class string, vals []shadow.Value, depth int) {
	if !e.header(key, class, depth) {
		return
	}
	if len(vals) == 0 {
		e.sb.WriteString(" []")
		return
	}
	e.sb.WriteString(" [\n")
	for _, v := range vals {
		e.writeIndent(depth + 1)
		e.emit(v, depth+1)
		e.sb.WriteString("\n")
	}
	e.writeIndent(depth)
	e.sb.WriteString("]")
}

func (e *textEmitter) emitEntries(c *shadow.Collection, depth int) {
	if !e.header(c, c.Type().Signature(), depth) {
		return
	}
	entries := c.Entries()
	if len(entries) == 0 {
		e.sb.WriteString(" {}")
		return
	}
	multiset := c.Type().Kind() == shadow.ContainerMultiset
	e.sb.WriteString(" {\n")
	for _, en := range entries {
		e.writeIndent(depth + 1)
		e.emit(en.Key, depth+1)
		if multiset {
			fmt.Fprintf(&e.sb, " x %d", en.Count)
		} else {
			e.sb.WriteString(" => ")
			e.emit(en.Value, depth+1)
		}
		e.sb.WriteString("\n")
	}
	e.writeIndent(depth)
	e.sb.WriteString("}")
}

func (e *textEmitter) writeIndent(depth int) {
	for i := 0; i < depth; i++ {
		e.sb.WriteString(e.opts.Indent)
	}
}
