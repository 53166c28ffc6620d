// Package binio reads the primitive encodings used by Clyde streams.
//
// All multi-byte numbers are big-endian. Strings use the modified UTF-8
// encoding written by java.io.DataOutputStream.writeUTF: a u16 byte count
// followed by one to three bytes per UTF-16 code unit. Variable-length
// integers carry seven bits per byte, low-order group first.
//
// Every failure is reported as a *FormatError carrying the absolute byte
// offset at which the bad value started.
package binio
