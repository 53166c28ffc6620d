package shadow

// EnumConst is an interned enum constant. Two lookups of the same name on
// the same template return the same pointer, across decodes.
type EnumConst struct {
	tmpl *Template
	name string
}

func (e *EnumConst) Template() *Template { return e.tmpl }
func (e *EnumConst) Name() string        { return e.name }

func (e *EnumConst) String() string {
	return e.tmpl.name + "." + e.name
}

// Enum returns the interned constant called name.
func (t *Template) Enum(name string) (*EnumConst, error) {
	if t.kind != TemplateEnum {
		return nil, &SchemaError{Template: t.name, Reason: "not an enum"}
	}
	t.enumMu.Lock()
	defer t.enumMu.Unlock()
	if e, ok := t.enums[name]; ok {
		return e, nil
	}
	if t.enums == nil {
		t.enums = make(map[string]*EnumConst)
	}
	e := &EnumConst{tmpl: t, name: name}
	t.enums[name] = e
	t.enumOrder = append(t.enumOrder, name)
	return e, nil
}

// EnumNames returns the constants interned so far, in first-seen order.
func (t *Template) EnumNames() []string {
	t.enumMu.Lock()
	defer t.enumMu.Unlock()
	out := make([]string, len(t.enumOrder))
	copy(out, t.enumOrder)
	return out
}
