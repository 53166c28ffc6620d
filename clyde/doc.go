// Package clyde decodes Clyde object-graph streams against a schema
// registry.
//
// A stream starts with an 8-byte header:
//
//	u32 magic   0xFACEAF0E
//	u16 version 0x1000 classic, 0x1001 intermediate, 0x1002 varint
//	u16 flags   0x1000 when the rest of the stream is deflated
//
// The version selects how object ids, class ids, field ids and segment
// lengths are encoded (see IDCodec). Every value after the header is read by
// ReadValue: an object id, a class descriptor when the declared type is not
// sealed, then either a leaf Streamer or a structural body (array, container
// or field segment). Object ids are cached before a body is read, so
// back-references and cycles resolve to the same *shadow.Instance.
//
// A Decoder owns all per-stream state and is not safe for concurrent use.
// The *shadow.Registry, *Streamers and hook registries it reads from may be
// shared by any number of decoders.
package clyde
