package catalog

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Neumenon/clyde/clyde"
	"github.com/Neumenon/clyde/shadow"
)

// Indexer decodes files and records them in a Catalog. Files whose size and
// checksum match their entry are skipped unless forced.
type Indexer struct {
	cat     *Catalog
	reg     *shadow.Registry
	decode  []clyde.Option
	logger  *slog.Logger
	workers int
	force   bool
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithDecodeOptions passes options to every decoder.
func WithDecodeOptions(opts ...clyde.Option) IndexerOption {
	return func(ix *Indexer) {
		ix.decode = append(ix.decode, opts...)
	}
}

// WithLogger sets the logger for per-file results.
func WithLogger(l *slog.Logger) IndexerOption {
	return func(ix *Indexer) {
		if l != nil {
			ix.logger = l
		}
	}
}

// WithWorkers sets how many files are decoded at once (default: GOMAXPROCS).
func WithWorkers(n int) IndexerOption {
	return func(ix *Indexer) {
		if n > 0 {
			ix.workers = n
		}
	}
}

// WithForce re-indexes files even when their entry is current.
func WithForce() IndexerOption {
	return func(ix *Indexer) {
		ix.force = true
	}
}

// NewIndexer returns an indexer writing to cat and decoding against reg.
func NewIndexer(cat *Catalog, reg *shadow.Registry, opts ...IndexerOption) *Indexer {
	ix := &Indexer{
		cat:     cat,
		reg:     reg,
		logger:  slog.New(slog.DiscardHandler),
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Result is the outcome of indexing one file.
type Result struct {
	Entry   Entry
	Skipped bool
}

// Summary counts the outcomes of IndexDir.
type Summary struct {
	Indexed int
	Skipped int
	Failed  int
}

// IndexFile decodes path and stores its entry. A file that fails to decode
// is still recorded, with Entry.Error set; only I/O, catalog and context
// errors are returned.
func (ix *Indexer) IndexFile(ctx context.Context, path string) (Result, error) {
	crc, size, err := ChecksumFile(path)
	if err != nil {
		return Result{}, err
	}
	if !ix.force {
		stale, err := ix.cat.Stale(path, size, crc)
		if err != nil {
			return Result{}, err
		}
		if !stale {
			e, err := ix.cat.Get(path)
			return Result{Entry: e, Skipped: true}, err
		}
	}

	e := Entry{Path: path, Size: size, CRC32: crc, IndexedAt: time.Now().UTC()}
	if err := ix.decodeInto(ctx, &e); err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		e.Error = err.Error()
		ix.logger.Warn("decode failed", "path", path, "error", err)
	} else {
		ix.logger.Debug("indexed", "path", path, "values", e.Values, "objects", e.Objects)
	}
	if err := ix.cat.Put(e); err != nil {
		return Result{}, err
	}
	return Result{Entry: e}, nil
}

func (ix *Indexer) decodeInto(ctx context.Context, e *Entry) error {
	f, err := os.Open(e.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	d, err := clyde.Open(f, ix.reg, ix.decode...)
	if err != nil {
		return err
	}
	e.Version = uint16(d.Header().Version)
	e.Compressed = d.Header().Compressed

	vals, err := d.ReadAll(ctx)
	st := d.Stats()
	e.Values = len(vals)
	e.Objects = st.Objects
	e.Classes = make(map[string]int)
	for i, v := range vals {
		name := ClassOf(v)
		if i == 0 {
			e.RootClass = name
		}
		e.Classes[name]++
	}
	e.Fallbacks = fallbacksOf(vals)
	return err
}

// IndexDir indexes every file under root accepted by match, decoding
// several files at once. A nil match accepts every regular file.
func (ix *Indexer) IndexDir(ctx context.Context, root string, match func(path string) bool) (Summary, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if de.Type().IsRegular() && (match == nil || match(path)) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}

	var (
		mu  sync.Mutex
		sum Summary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.workers)
	for _, path := range paths {
		g.Go(func() error {
			res, err := ix.IndexFile(gctx, path)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			switch {
			case res.Skipped:
				sum.Skipped++
			case !res.Entry.OK():
				sum.Failed++
			default:
				sum.Indexed++
			}
			return nil
		})
	}
	err = g.Wait()
	return sum, err
}

// MatchExt returns a match function accepting the given file extensions,
// compared case-insensitively.
func MatchExt(exts ...string) func(string) bool {
	return func(path string) bool {
		ext := strings.ToLower(filepath.Ext(path))
		for _, e := range exts {
			if ext == strings.ToLower(e) {
				return true
			}
		}
		return false
	}
}

// ClassOf names the class of a decoded value: the template of an object or
// enum, the signature of an array or collection, or the kind of a scalar.
func ClassOf(v shadow.Value) string {
	switch v.Kind() {
	case shadow.KindObject:
		in, _ := v.AsObject()
		return in.Template().Name()
	case shadow.KindEnum:
		e, _ := v.AsEnum()
		return e.Template().Name()
	case shadow.KindArray:
		a, _ := v.AsArray()
		return a.Type().Signature()
	case shadow.KindCollection:
		c, _ := v.AsCollection()
		return c.Type().Signature()
	}
	return v.Kind().String()
}

// fallbacksOf lists the synthesized templates among the top-level objects.
func fallbacksOf(vals []shadow.Value) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range vals {
		in, err := v.AsObject()
		if err != nil || in == nil || !in.Template().IsFallback() {
			continue
		}
		if name := in.Template().Name(); !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}
