package shadow

import "fmt"

// SchemaError reports a field operation that disagrees with the schema: an
// unknown field, a value of the wrong shape, or an access of the wrong kind.
// It is local to the one operation; the decode that triggered it may go on.
type SchemaError struct {
	Template string
	Field    string
	Reason   string
}

func (e *SchemaError) Error() string {
	switch {
	case e.Template == "" && e.Field == "":
		return "shadow: " + e.Reason
	case e.Field == "":
		return fmt.Sprintf("shadow: %s: %s", e.Template, e.Reason)
	default:
		return fmt.Sprintf("shadow: %s.%s: %s", e.Template, e.Field, e.Reason)
	}
}

// UnknownClassError is reported, not returned, when a class name has no
// template. The registry substitutes an empty fallback template.
type UnknownClassError struct {
	Name string
}

func (e *UnknownClassError) Error() string {
	return fmt.Sprintf("shadow: unknown class %q, using empty fallback template", e.Name)
}

// DumpError reports a malformed schema dump line.
type DumpError struct {
	Line   int
	Text   string
	Reason string
}

func (e *DumpError) Error() string {
	return fmt.Sprintf("shadow: dump line %d: %s: %q", e.Line, e.Reason, e.Text)
}
