package shadow

import (
	"bufio"
	"io"
	"strings"
)

// Load parses a schema dump and adds its classes. Several dumps may be
// loaded into one registry: a class that an earlier dump only referenced
// (a fallback template) is filled in place, so every type already pointing
// at it sees the declaration. Declaring a class twice is a *DumpError; the
// pre-registered bootstrap classes are never replaced. Field types are
// resolved once the whole dump has been read, so fields may name classes
// declared further down.
//
// Load must complete before the registry is shared with concurrent decodes.
func (r *Registry) Load(src io.Reader) error {
	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var (
		cur    *Template
		parsed []*Template
		lines  []int
		lineNo int
	)
	for sc.Scan() {
		lineNo++
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}

		if text[0] == ' ' || text[0] == '\t' {
			if cur == nil {
				return &DumpError{Line: lineNo, Text: text, Reason: "field line before any class header"}
			}
			parts := strings.Fields(text)
			if len(parts) != 2 {
				return &DumpError{Line: lineNo, Text: text, Reason: "want <field> <signature>"}
			}
			cur.addField(parts[0], parts[1])
			continue
		}

		t, err := r.parseHeader(text)
		if err != nil {
			err.Line = lineNo
			return err
		}
		cur = t
		parsed = append(parsed, t)
		lines = append(lines, lineNo)
	}
	if err := sc.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	seen := make(map[string]bool, len(parsed))
	for i, t := range parsed {
		prev, ok := r.templates[t.name]
		if seen[t.name] || (ok && !prev.fallback && !prev.bootstrap()) {
			r.mu.Unlock()
			return &DumpError{Line: lines[i], Text: t.name, Reason: "class declared twice"}
		}
		seen[t.name] = true
	}
	for i, t := range parsed {
		prev, ok := r.templates[t.name]
		switch {
		case !ok:
			r.templates[t.name] = t
		case prev.fallback:
			prev.adopt(t)
			parsed[i] = prev
		default:
			parsed[i] = nil
		}
	}
	r.mu.Unlock()

	for _, t := range parsed {
		if t == nil {
			continue
		}
		for _, f := range t.fields {
			typ, err := r.Resolve(f.Signature)
			if err != nil {
				return &DumpError{Text: f.Name + " " + f.Signature, Reason: "field of " + t.name + ": " + err.Error()}
			}
			f.Type = typ
		}
	}

	r.logger.Debug("schema dump loaded", "classes", len(parsed), "templates", r.Len())
	return nil
}

// parseHeader parses "<kind><sealed><name>[:<base>][+<iface>]*".
func (r *Registry) parseHeader(text string) (*Template, *DumpError) {
	if len(text) < 4 {
		return nil, &DumpError{Text: text, Reason: "class header too short"}
	}
	kind, ok := ParseTemplateKind(text[:2])
	if !ok {
		return nil, &DumpError{Text: text, Reason: "unknown kind " + text[:2]}
	}
	var sealed bool
	switch text[2] {
	case 'f':
		sealed = true
	case '-':
	default:
		return nil, &DumpError{Text: text, Reason: "sealed flag must be 'f' or '-'"}
	}

	head := strings.TrimSpace(text[3:])
	var base string
	var ifaces []string
	if i := strings.IndexByte(head, '+'); i >= 0 {
		ifaces = strings.Split(head[i+1:], "+")
		head = head[:i]
	}
	if i := strings.IndexByte(head, ':'); i >= 0 {
		base = head[i+1:]
		head = head[:i]
	}
	if head == "" {
		return nil, &DumpError{Text: text, Reason: "empty class name"}
	}
	for _, n := range ifaces {
		if n == "" {
			return nil, &DumpError{Text: text, Reason: "empty interface name"}
		}
	}
	return newTemplate(r, head, kind, sealed, base, ifaces), nil
}
