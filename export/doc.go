// Package export renders decoded object graphs as JSON, YAML, msgpack or
// an indented text dump.
//
// Graphs may share and cycle. An object, array or collection reachable more
// than once is written in full at its first occurrence, tagged "$id", and
// every later occurrence becomes {"$ref": id}. Ids are shared by all roots
// passed to one call.
package export
