// Package script holds the symbolic half of the decoding pipeline: mapping
// archaic glyphs to modern script and glossing the result.
//
// # Tables
//
// A TransliterationTable maps an archaic symbol to a modern-script string; a
// GlossTable maps a modern-script substring to a short label. Both are flat,
// ordered key/value resources read from JSON or YAML. Keys are unique, keys
// and values are non-empty UTF-8 strings, and both are stored in Unicode NFC.
// Anything else fails with ErrTableLoad; a broken resource never degrades to an
// empty table.
//
// Order matters only for glossing, where entries are applied in the order the
// resource lists them.
//
// # Registry
//
// A Registry holds the process-wide pair of tables. Init loads them at most
// once; Reload replaces them explicitly. Loaded tables are never mutated, so
// concurrent readers need no locking.
//
// # Glossing Modes
//
// ModeSequential applies each entry to the progressively rewritten text, so a
// later key can match inside an earlier annotation. ModeSinglePass scans the
// original text once and never re-reads inserted annotations.
package script
