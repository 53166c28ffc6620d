// clyde - decoder for Clyde exported object graphs
//
// Usage:
//
//	clyde [--config FILE] [--schema DUMP]... COMMAND
//
//	clyde decode [--format json|yaml|msgpack|text] [--out FILE] FILE
//	clyde header FILE                  Print the stream header
//	clyde schema [NAME]                List templates or describe one
//	clyde index [--force] DIR          Record every file under DIR in the catalog
//	clyde catalog [--classes]          List catalog entries or class totals
//	clyde inspect FILE                 Browse a decoded file interactively
//
// Schema dumps come from --schema flags and the "schema" list of the config
// file; at least one is needed to decode anything but wrapper values.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/minio/cli"
	"rivaas.dev/logging"

	"github.com/Neumenon/clyde/clyde"
	"github.com/Neumenon/clyde/config"
	"github.com/Neumenon/clyde/mathtypes"
	"github.com/Neumenon/clyde/shadow"
)

const version = "0.3.0"

var globalFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "config, c",
		Usage: "TOML settings file",
	},
	cli.StringSliceFlag{
		Name:  "schema, s",
		Usage: "schema dump to load (repeatable)",
	},
	cli.StringFlag{
		Name:  "log-level",
		Usage: "debug, info, warn or error",
	},
	cli.BoolFlag{
		Name:  "lenient",
		Usage: "accept 4-byte UTF-8 sequences in strings",
	},
}

// env is the state every command shares, built once before any runs.
type env struct {
	cfg    config.Config
	logger *slog.Logger
	stop   func(context.Context) error
	reg    *shadow.Registry
}

func (e *env) setup(c *cli.Context) error {
	cfg, err := config.Load(c.GlobalString("config"))
	if err != nil {
		return err
	}
	cfg.Schema = append(cfg.Schema, c.GlobalStringSlice("schema")...)
	if lvl := c.GlobalString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	if c.GlobalBool("lenient") {
		cfg.Lenient = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.cfg = cfg

	log, err := logging.New(cfg.Log.Options(os.Stderr)...)
	if err != nil {
		return err
	}
	e.logger = log.Logger()
	e.stop = log.Shutdown

	e.reg, err = cfg.Registry(e.logger)
	if err != nil {
		return err
	}
	e.logger.Debug("registry loaded", "dumps", len(cfg.Schema), "templates", e.reg.Len())
	return nil
}

func (e *env) shutdown() error {
	if e.stop == nil {
		return nil
	}
	return e.stop(context.Background())
}

// decodeOptions returns the configured decoder options with the math and
// config hooks installed.
func (e *env) decodeOptions() []clyde.Option {
	enc := clyde.NewEncodableHooks()
	mathtypes.Register(enc)
	fields := clyde.NewFieldHooks()
	mathtypes.RegisterFields(fields)
	return append(e.cfg.DecodeOptions(e.logger),
		clyde.WithEncodableHooks(enc),
		clyde.WithFieldHooks(fields),
	)
}

func newApp() *cli.App {
	e := &env{}
	app := cli.NewApp()
	app.Name = "clyde"
	app.Usage = "Decode Clyde exported object graphs."
	app.Version = version
	app.Flags = globalFlags
	app.Before = e.setup
	app.After = func(*cli.Context) error { return e.shutdown() }
	app.Commands = []cli.Command{
		decodeCommand(e),
		headerCommand(e),
		schemaCommand(e),
		indexCommand(e),
		catalogCommand(e),
		inspectCommand(e),
	}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "clyde:", err)
		os.Exit(1)
	}
}
