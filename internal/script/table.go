package script

import (
	"errors"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// ErrTableLoad reports a missing or corrupt table resource.
var ErrTableLoad = errors.New("table load failed")

// Entry is one key/value pair of a table.
type Entry struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Table is an immutable, ordered string mapping with unique keys.
type Table struct {
	entries []Entry
	index   map[string]string
}

// NewTable validates entries and builds a table. Keys and values are
// converted to NFC; two keys equal after conversion are duplicates.
func NewTable(entries []Entry) (*Table, error) {
	t := &Table{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]string, len(entries)),
	}
	for i, e := range entries {
		k := norm.NFC.String(e.Key)
		v := norm.NFC.String(e.Value)
		if k == "" {
			return nil, fmt.Errorf("%w: entry %d has an empty key", ErrTableLoad, i)
		}
		if v == "" {
			return nil, fmt.Errorf("%w: entry %d (%q) has an empty value", ErrTableLoad, i, k)
		}
		if _, dup := t.index[k]; dup {
			return nil, fmt.Errorf("%w: duplicate key %q", ErrTableLoad, k)
		}
		t.index[k] = v
		t.entries = append(t.entries, Entry{Key: k, Value: v})
	}
	return t, nil
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }

// Lookup returns the value for key. A key that is not in NFC is retried in
// NFC.
func (t *Table) Lookup(key string) (string, bool) {
	if v, ok := t.index[key]; ok {
		return v, true
	}
	if nk := norm.NFC.String(key); nk != key {
		v, ok := t.index[nk]
		return v, ok
	}
	return "", false
}

// Entries returns a copy of the entries in table order.
func (t *Table) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Equal reports whether both tables hold the same entries in the same order.
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}
	if len(t.entries) != len(o.entries) {
		return false
	}
	for i := range t.entries {
		if t.entries[i] != o.entries[i] {
			return false
		}
	}
	return true
}

// TransliterationTable maps archaic symbols to modern-script strings.
type TransliterationTable struct {
	*Table
}

// NewTransliterationTable builds a transliteration table from entries.
func NewTransliterationTable(entries []Entry) (*TransliterationTable, error) {
	t, err := NewTable(entries)
	if err != nil {
		return nil, err
	}
	return &TransliterationTable{Table: t}, nil
}

// GlossTable maps modern-script substrings to gloss labels, in application
// order.
type GlossTable struct {
	*Table
}

// NewGlossTable builds a gloss table from entries.
func NewGlossTable(entries []Entry) (*GlossTable, error) {
	t, err := NewTable(entries)
	if err != nil {
		return nil, err
	}
	return &GlossTable{Table: t}, nil
}

// MapEntries builds entries from alternating key/value arguments. It panics on
// an odd count and is meant for literals in code and tests.
func MapEntries(kv ...string) []Entry {
	if len(kv)%2 != 0 {
		panic("script.MapEntries: odd number of arguments")
	}
	out := make([]Entry, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		out = append(out, Entry{Key: kv[i], Value: kv[i+1]})
	}
	return out
}
