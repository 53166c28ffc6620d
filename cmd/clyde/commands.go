package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/minio/cli"

	"github.com/Neumenon/clyde/binio"
	"github.com/Neumenon/clyde/catalog"
	"github.com/Neumenon/clyde/clyde"
	"github.com/Neumenon/clyde/export"
	"github.com/Neumenon/clyde/shadow"
)

// interruptible returns a context canceled on Ctrl-C.
func interruptible() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func fileArg(c *cli.Context, what string) (string, error) {
	path := c.Args().First()
	if path == "" {
		return "", fmt.Errorf("%s: missing %s argument", c.Command.Name, what)
	}
	return path, nil
}

// ============================================================
// decode
// ============================================================

func decodeCommand(e *env) cli.Command {
	return cli.Command{
		Name:      "decode",
		Usage:     "decode a file and write its object graph",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "format, f", Usage: "json, yaml, msgpack or text"},
			cli.StringFlag{Name: "out, o", Usage: "write to FILE instead of stdout"},
			cli.BoolFlag{Name: "compact", Usage: "single-line JSON"},
			cli.BoolFlag{Name: "sort", Usage: "sort object fields in text output"},
		},
		Action: func(c *cli.Context) error {
			path, err := fileArg(c, "FILE")
			if err != nil {
				return err
			}
			name := e.cfg.Export.Format
			if f := c.String("format"); f != "" {
				name = f
			}
			format, err := export.ParseFormat(name)
			if err != nil {
				return err
			}

			ctx, cancel := interruptible()
			defer cancel()
			vals, hdr, err := clyde.DecodeFile(ctx, path, e.reg, e.decodeOptions()...)
			if err != nil {
				return err
			}
			e.logger.Debug("decoded", "path", path, "version", hdr.Version.String(), "values", len(vals))

			var w io.Writer = os.Stdout
			if out := c.String("out"); out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return export.Write(w, vals, export.Options{
				Format:     format,
				Indent:     e.cfg.Export.Indent,
				Compact:    c.Bool("compact"),
				SortFields: e.cfg.Export.SortFields || c.Bool("sort"),
			})
		},
	}
}

// ============================================================
// header
// ============================================================

func headerCommand(e *env) cli.Command {
	return cli.Command{
		Name:      "header",
		Usage:     "print the stream header, and decode statistics with --stats",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			cli.BoolFlag{Name: "stats", Usage: "decode the file and report what it holds"},
		},
		Action: func(c *cli.Context) error {
			path, err := fileArg(c, "FILE")
			if err != nil {
				return err
			}
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			if !c.Bool("stats") {
				hdr, err := clyde.ReadHeader(binio.NewReader(f))
				if err != nil {
					return err
				}
				printHeader(os.Stdout, hdr)
				return nil
			}

			d, err := clyde.Open(f, e.reg, e.decodeOptions()...)
			if err != nil {
				return err
			}
			printHeader(os.Stdout, d.Header())
			ctx, cancel := interruptible()
			defer cancel()
			_, err = d.ReadAll(ctx)
			st := d.Stats()
			fmt.Printf("values:     %d\nobjects:    %d\nclasses:    %d\nfields:     %d\nbytes:      %d\n",
				st.Values, st.Objects, st.Classes, st.Fields, st.Bytes)
			if fb := e.reg.Fallbacks(); len(fb) > 0 {
				fmt.Printf("fallbacks:  %s\n", strings.Join(fb, ", "))
			}
			return err
		},
	}
}

func printHeader(w io.Writer, hdr clyde.Header) {
	fmt.Fprintf(w, "version:    %s (0x%04X)\ncompressed: %t\n", hdr.Version, uint16(hdr.Version), hdr.Compressed)
}

// ============================================================
// schema
// ============================================================

func schemaCommand(e *env) cli.Command {
	return cli.Command{
		Name:      "schema",
		Usage:     "list loaded templates, or describe one",
		ArgsUsage: "[NAME]",
		Action: func(c *cli.Context) error {
			name := c.Args().First()
			if name == "" {
				for _, n := range e.reg.Names() {
					fmt.Println(n)
				}
				return nil
			}
			t, ok := e.reg.Lookup(name)
			if !ok {
				return fmt.Errorf("schema: no template %q", name)
			}
			describeTemplate(os.Stdout, t)
			return nil
		},
	}
}

func describeTemplate(w io.Writer, t *shadow.Template) {
	fmt.Fprintf(w, "%s %s", t.Kind(), t.Name())
	if t.Sealed() {
		fmt.Fprint(w, " (sealed)")
	}
	fmt.Fprintln(w)
	if b := t.BaseName(); b != "" {
		fmt.Fprintf(w, "  extends %s\n", b)
	}
	if ifs := t.InterfaceNames(); len(ifs) > 0 {
		fmt.Fprintf(w, "  implements %s\n", strings.Join(ifs, ", "))
	}
	if o := t.Outer(); o != nil {
		fmt.Fprintf(w, "  inner class of %s\n", o.Name())
	}
	for _, f := range t.Fields() {
		fmt.Fprintf(w, "  %s %s\n", f.Name, f.Signature)
	}
}

// ============================================================
// index / catalog
// ============================================================

func indexCommand(e *env) cli.Command {
	return cli.Command{
		Name:      "index",
		Usage:     "decode every file under DIR and record it in the catalog",
		ArgsUsage: "DIR",
		Flags: []cli.Flag{
			cli.BoolFlag{Name: "force", Usage: "re-index files whose entry is current"},
			cli.IntFlag{Name: "workers, j", Usage: "files decoded at once"},
		},
		Action: func(c *cli.Context) error {
			dir, err := fileArg(c, "DIR")
			if err != nil {
				return err
			}
			cat, err := catalog.Open(e.cfg.Catalog.Path)
			if err != nil {
				return err
			}
			defer cat.Close()

			workers := e.cfg.Catalog.Workers
			if n := c.Int("workers"); n > 0 {
				workers = n
			}
			opts := []catalog.IndexerOption{
				catalog.WithDecodeOptions(e.decodeOptions()...),
				catalog.WithLogger(e.logger),
				catalog.WithWorkers(workers),
			}
			if c.Bool("force") {
				opts = append(opts, catalog.WithForce())
			}

			ctx, cancel := interruptible()
			defer cancel()
			ix := catalog.NewIndexer(cat, e.reg, opts...)
			sum, err := ix.IndexDir(ctx, dir, catalog.MatchExt(e.cfg.Catalog.Extensions...))
			fmt.Printf("indexed %d, skipped %d, failed %d\n", sum.Indexed, sum.Skipped, sum.Failed)
			return err
		},
	}
}

func catalogCommand(e *env) cli.Command {
	return cli.Command{
		Name:  "catalog",
		Usage: "list catalog entries, or class totals with --classes",
		Flags: []cli.Flag{
			cli.BoolFlag{Name: "classes", Usage: "print top-level class counts"},
			cli.BoolFlag{Name: "failed", Usage: "only entries that failed to decode"},
		},
		Action: func(c *cli.Context) error {
			cat, err := catalog.Open(e.cfg.Catalog.Path)
			if err != nil {
				return err
			}
			defer cat.Close()

			if c.Bool("classes") {
				counts, err := cat.ClassCounts()
				if err != nil {
					return err
				}
				for _, cc := range counts {
					fmt.Printf("%8d  %s\n", cc.Count, cc.Class)
				}
				return nil
			}

			entries, err := cat.List()
			if err != nil {
				return err
			}
			return printEntries(os.Stdout, entries, c.Bool("failed"))
		},
	}
}

func printEntries(w io.Writer, entries []catalog.Entry, failedOnly bool) error {
	for _, en := range entries {
		if failedOnly && en.OK() {
			continue
		}
		status := en.RootClass
		if !en.OK() {
			status = "error: " + en.Error
		}
		if _, err := fmt.Fprintf(w, "%08x %10d  %s  %s\n", en.CRC32, en.Size, en.Path, status); err != nil {
			return err
		}
		if len(en.Fallbacks) > 0 {
			fb := append([]string(nil), en.Fallbacks...)
			sort.Strings(fb)
			fmt.Fprintf(w, "    unknown classes: %s\n", strings.Join(fb, ", "))
		}
	}
	return nil
}

var errNoInput = errors.New("nothing decoded")
