package clyde

import "log/slog"

// DefaultMaxElements caps the length of any array, collection or field
// segment.
const DefaultMaxElements = 1 << 24

// Option configures a Decoder.
type Option func(*Decoder)

// WithLogger sets the logger for recoverable problems such as dropped
// fields. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(d *Decoder) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithFieldHooks sets the field-read hooks.
func WithFieldHooks(h *FieldHooks) Option {
	return func(d *Decoder) {
		if h != nil {
			d.fieldHooks = h
		}
	}
}

// WithEncodableHooks sets the decode hooks for encodable classes.
func WithEncodableHooks(h *EncodableHooks) Option {
	return func(d *Decoder) {
		if h != nil {
			d.encHooks = h
		}
	}
}

// WithStreamers replaces the built-in leaf streamers. It takes precedence
// over WithLenientStrings.
func WithStreamers(s *Streamers) Option {
	return func(d *Decoder) {
		d.streamers = s
	}
}

// WithLenientStrings decodes strings that are not valid modified UTF-8 as
// plain UTF-8 instead of failing.
func WithLenientStrings() Option {
	return func(d *Decoder) {
		d.lenient = true
	}
}

// WithMaxElements sets the largest accepted array, collection or field
// segment length (default: DefaultMaxElements).
func WithMaxElements(n int) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.maxElements = n
		}
	}
}
