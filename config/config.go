// Package config loads the TOML settings shared by the clyde commands:
// which schema dumps to load, how to log, how to decode, and where the
// catalog lives. Files are merged over Default and then validated.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"dario.cat/mergo"
	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"rivaas.dev/logging"

	"github.com/Neumenon/clyde/clyde"
	"github.com/Neumenon/clyde/shadow"
)

// Config is the full settings tree.
type Config struct {
	Schema      []string `toml:"schema" validate:"dive,required"`
	Lenient     bool     `toml:"lenient"`
	MaxElements int      `toml:"max_elements" validate:"gte=0"`

	Log     Log     `toml:"log"`
	Export  Export  `toml:"export"`
	Catalog Catalog `toml:"catalog"`
}

// Log selects the log level and handler.
type Log struct {
	Level  string `toml:"level" validate:"oneof=debug info warn error"`
	Format string `toml:"format" validate:"oneof=text json console"`
}

// Export holds the defaults of the decode command.
type Export struct {
	Format     string `toml:"format" validate:"oneof=json yaml msgpack text"`
	Indent     string `toml:"indent"`
	SortFields bool   `toml:"sort_fields"`
}

// Catalog configures the index database and the directory walk.
type Catalog struct {
	Path       string   `toml:"path" validate:"required"`
	Workers    int      `toml:"workers" validate:"gte=0"`
	Extensions []string `toml:"extensions" validate:"dive,startswith=."`
}

// Default returns the settings used when no file overrides them.
func Default() Config {
	return Config{
		MaxElements: clyde.DefaultMaxElements,
		Log:         Log{Level: "info", Format: "text"},
		Export:      Export{Format: "json", Indent: "  "},
		Catalog:     Catalog{Path: "clyde.db", Extensions: []string{".dat"}},
	}
}

// Error lists every setting that failed validation.
type Error struct {
	Path   string
	Fields []string
}

func (e *Error) Error() string {
	where := "config"
	if e.Path != "" {
		where = e.Path
	}
	return fmt.Sprintf("%s: invalid %s", where, strings.Join(e.Fields, ", "))
}

// Load reads path, fills unset settings from Default and validates the
// result. An empty path yields Default. Unknown keys are an error.
func Load(path string) (Config, error) {
	var c Config
	if path != "" {
		md, err := toml.DecodeFile(path, &c)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
		if extra := md.Undecoded(); len(extra) > 0 {
			keys := make([]string, len(extra))
			for i, k := range extra {
				keys[i] = k.String()
			}
			return Config{}, fmt.Errorf("%s: unknown keys %s", path, strings.Join(keys, ", "))
		}
	}
	if err := mergo.Merge(&c, Default()); err != nil {
		return Config{}, err
	}
	if err := c.validate(path); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks every setting.
func (c Config) Validate() error {
	return c.validate("")
}

var structValidator = validator.New(validator.WithRequiredStructEnabled())

func (c Config) validate(path string) error {
	err := structValidator.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &Error{Path: path}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, fmt.Sprintf("%s (%s)", strings.TrimPrefix(fe.Namespace(), "Config."), fe.Tag()))
	}
	return out
}

// ============================================================
// Wiring
// ============================================================

// SlogLevel returns the slog level named by Log.Level.
func (l Log) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Options returns the logging options writing to w.
func (l Log) Options(w io.Writer) []logging.Option {
	opts := []logging.Option{logging.WithOutput(w), logging.WithLevel(l.SlogLevel())}
	switch l.Format {
	case "json":
		opts = append(opts, logging.WithJSONHandler())
	case "console":
		opts = append(opts, logging.WithConsoleHandler())
	default:
		opts = append(opts, logging.WithTextHandler())
	}
	return opts
}

// DecodeOptions returns the decoder options the settings imply.
func (c Config) DecodeOptions(logger *slog.Logger) []clyde.Option {
	opts := []clyde.Option{clyde.WithLogger(logger), clyde.WithMaxElements(c.MaxElements)}
	if c.Lenient {
		opts = append(opts, clyde.WithLenientStrings())
	}
	return opts
}

// Registry loads every schema dump into one registry.
func (c Config) Registry(logger *slog.Logger) (*shadow.Registry, error) {
	reg := shadow.NewRegistry(shadow.WithLogger(logger))
	for _, path := range c.Schema {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		err = reg.Load(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return reg, nil
}
