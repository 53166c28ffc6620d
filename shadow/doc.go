// Package shadow is the schema and value model of the Clyde decoder.
//
// The engine classes that wrote a Clyde stream are not available, so each
// one is stood in for by a Template built from a textual schema dump. A
// Template is immutable once registered and shared by every decode. Decoded
// objects are Instances cloned from a Template; their field values are
// Values, a closed tagged union over the primitive, string and reference
// kinds the format can produce.
//
// Schema dump grammar, one record per class:
//
//	<kind><sealed><name>[:<base>][+<iface>]*
//		<field> <signature>
//
// kind is CL, IF, EN or AN; sealed is 'f' for final classes and '-'
// otherwise. Field signatures are JVM descriptors ("I", "[F",
// "Lcom.foo.Bar;") or plain class names.
package shadow
