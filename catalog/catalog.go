// Package catalog keeps a persistent index of decoded Clyde files in a
// bbolt database. Each file is recorded once, keyed by path, with enough of
// its header, size and checksum to tell when it needs decoding again.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	bolt "go.etcd.io/bbolt"
)

const bucketFiles = "files"

// ErrNotFound is returned for paths that have no entry.
var ErrNotFound = errors.New("catalog: no such entry")

// Entry describes one indexed file.
type Entry struct {
	Path       string         `msgpack:"path"`
	Size       int64          `msgpack:"size"`
	CRC32      uint32         `msgpack:"crc32"`
	Version    uint16         `msgpack:"version"`
	Compressed bool           `msgpack:"compressed"`
	RootClass  string         `msgpack:"root_class"`
	Values     int            `msgpack:"values"`
	Objects    int            `msgpack:"objects"`
	Classes    map[string]int `msgpack:"classes"`
	Fallbacks  []string       `msgpack:"fallbacks,omitempty"`
	Error      string         `msgpack:"error,omitempty"`
	IndexedAt  time.Time      `msgpack:"indexed_at"`
}

// OK reports whether the file decoded without error.
func (e Entry) OK() bool { return e.Error == "" }

// Catalog is an open index database. It is safe for concurrent use.
type Catalog struct {
	db *bolt.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Catalog, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketFiles))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: init %s: %w", path, err)
	}
	return &Catalog{db: db}, nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Put stores e under e.Path, replacing any earlier entry.
func (c *Catalog) Put(e Entry) error {
	if e.Path == "" {
		return errors.New("catalog: entry has no path")
	}
	data, err := msgpack.Marshal(&e)
	if err != nil {
		return err
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketFiles)).Put([]byte(e.Path), data)
	})
}

// Get returns the entry for path.
func (c *Catalog) Get(path string) (Entry, error) {
	var e Entry
	err := c.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(bucketFiles)).Get([]byte(path))
		if data == nil {
			return ErrNotFound
		}
		return msgpack.Unmarshal(data, &e)
	})
	return e, err
}

// Delete removes the entry for path. Deleting a missing entry is not an
// error.
func (c *Catalog) Delete(path string) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketFiles)).Delete([]byte(path))
	})
}

// List returns every entry ordered by path.
func (c *Catalog) List() ([]Entry, error) {
	var out []Entry
	err := c.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketFiles)).ForEach(func(k, v []byte) error {
			var e Entry
			if err := msgpack.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("catalog: entry %s: %w", k, err)
			}
			out = append(out, e)
			return nil
		})
	})
	return out, err
}

// Stale reports whether path needs indexing: it has no entry, or its size
// or checksum changed.
func (c *Catalog) Stale(path string, size int64, crc uint32) (bool, error) {
	e, err := c.Get(path)
	if errors.Is(err, ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return e.Size != size || e.CRC32 != crc, nil
}

// ClassCounts sums the per-class object counts of every entry, sorted by
// descending count and then name.
func (c *Catalog) ClassCounts() ([]ClassCount, error) {
	entries, err := c.List()
	if err != nil {
		return nil, err
	}
	totals := make(map[string]int)
	for _, e := range entries {
		for name, n := range e.Classes {
			totals[name] += n
		}
	}
	out := make([]ClassCount, 0, len(totals))
	for name, n := range totals {
		out = append(out, ClassCount{Class: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Class < out[j].Class
	})
	return out, nil
}

// ClassCount is a class name and how many top-level values had it.
type ClassCount struct {
	Class string
	Count int
}
