package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/Neumenon/clyde/shadow"
)

// Format names an output encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatMsgpack Format = "msgpack"
	FormatText    Format = "text"
)

// Formats lists the supported formats.
var Formats = []Format{FormatJSON, FormatYAML, FormatMsgpack, FormatText}

// ParseFormat parses a format name, case-insensitively. "yml" and "mp" are
// accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "msgpack", "mp":
		return FormatMsgpack, nil
	case "text", "txt":
		return FormatText, nil
	}
	return "", fmt.Errorf("export: unknown format %q", s)
}

// Options configures Write.
type Options struct {
	Format Format

	// Indent for JSON and text output (default: two spaces). Empty JSON
	// indent with Compact set yields one line.
	Indent string

	// Compact writes JSON without any whitespace.
	Compact bool

	// SortFields sorts object fields by name in text output. Tree formats
	// always sort map keys.
	SortFields bool
}

// DefaultOptions returns JSON output indented by two spaces.
func DefaultOptions() Options {
	return Options{
		Format: FormatJSON,
		Indent: "  ",
	}
}

// Write renders vals in the configured format. Several roots are written
// as one JSON array, YAML sequence or msgpack array.
func Write(w io.Writer, vals []shadow.Value, opts Options) error {
	if opts.Indent == "" && !opts.Compact {
		opts.Indent = "  "
	}
	switch opts.Format {
	case FormatJSON, "":
		indent := opts.Indent
		if opts.Compact {
			indent = ""
		}
		return JSON(w, vals, indent)
	case FormatYAML:
		return YAML(w, vals)
	case FormatMsgpack:
		return Msgpack(w, vals)
	case FormatText:
		return Text(w, vals, TextOptions{Indent: opts.Indent, SortFields: opts.SortFields})
	}
	return fmt.Errorf("export: unknown format %q", opts.Format)
}

func document(vals []shadow.Value) any {
	trees := Trees(vals)
	if len(trees) == 1 {
		return trees[0]
	}
	return trees
}

// JSON writes vals as JSON. An empty indent writes a single line.
func JSON(w io.Writer, vals []shadow.Value, indent string) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(document(vals)); err != nil {
		return fmt.Errorf("export json: %w", err)
	}
	return nil
}

// YAML writes vals as a YAML document.
func YAML(w io.Writer, vals []shadow.Value) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(document(vals)); err != nil {
		return fmt.Errorf("export yaml: %w", err)
	}
	return enc.Close()
}

// Msgpack writes vals as msgpack with sorted map keys.
func Msgpack(w io.Writer, vals []shadow.Value) error {
	enc := msgpack.NewEncoder(w)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(document(vals)); err != nil {
		return fmt.Errorf("export msgpack: %w", err)
	}
	return nil
}
