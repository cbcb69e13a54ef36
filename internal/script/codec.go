package script

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format names a table serialisation.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" or "yml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown table format %q", s)
	}
}

// FormatFromPath picks the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	if f, err := ParseFormat(filepath.Ext(path)); err == nil {
		return f
	}
	return FormatJSON
}

// DecodeEntries reads a flat mapping of strings in document order.
func DecodeEntries(r io.Reader, format Format) ([]Entry, error) {
	switch format {
	case FormatJSON:
		return decodeJSON(r)
	case FormatYAML:
		return decodeYAML(r)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrTableLoad, format)
	}
}

// EncodeEntries writes entries as a flat mapping, preserving their order.
func EncodeEntries(w io.Writer, entries []Entry, format Format) error {
	switch format {
	case FormatJSON:
		return encodeJSON(w, entries)
	case FormatYAML:
		return encodeYAML(w, entries)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// ReadTable decodes and validates a table. A resource without entries is
// rejected: decoding must not run against an empty table.
func ReadTable(r io.Reader, format Format) (*Table, error) {
	entries, err := DecodeEntries(r, format)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: table has no entries", ErrTableLoad)
	}
	return NewTable(entries)
}

// LoadTableFile reads a table from disk, choosing the format by extension.
func LoadTableFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTableLoad, err)
	}
	defer f.Close()

	t, err := ReadTable(f, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func decodeJSON(r io.Reader) ([]Entry, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty resource", ErrTableLoad)
		}
		return nil, fmt.Errorf("%w: %v", ErrTableLoad, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: top level must be an object", ErrTableLoad)
	}

	var entries []Entry
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTableLoad, err)
		}
		key, _ := kt.(string)

		vt, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTableLoad, err)
		}
		value, ok := vt.(string)
		if !ok {
			return nil, fmt.Errorf("%w: value for %q must be a string", ErrTableLoad, key)
		}
		entries = append(entries, Entry{Key: key, Value: value})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTableLoad, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after object", ErrTableLoad)
	}
	return entries, nil
}

func decodeYAML(r io.Reader) ([]Entry, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty resource", ErrTableLoad)
		}
		return nil, fmt.Errorf("%w: %v", ErrTableLoad, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level must be a mapping", ErrTableLoad)
	}

	m := doc.Content[0]
	entries := make([]Entry, 0, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		k, v := m.Content[i], m.Content[i+1]
		if k.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%w: line %d: key must be a string", ErrTableLoad, k.Line)
		}
		if v.Kind != yaml.ScalarNode || v.Tag == "!!null" {
			return nil, fmt.Errorf("%w: line %d: value for %q must be a string", ErrTableLoad, v.Line, k.Value)
		}
		entries = append(entries, Entry{Key: k.Value, Value: v.Value})
	}
	return entries, nil
}

func encodeJSON(w io.Writer, entries []Entry) error {
	var buf bytes.Buffer
	buf.WriteString("{")
	for i, e := range entries {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  ")
		if err := writeJSONString(&buf, e.Key); err != nil {
			return err
		}
		buf.WriteString(": ")
		if err := writeJSONString(&buf, e.Value); err != nil {
			return err
		}
	}
	if len(entries) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	_, err := w.Write(buf.Bytes())
	return err
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}

func encodeYAML(w io.Writer, entries []Entry) error {
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range entries {
		m.Content = append(m.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Key},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Value},
		)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return err
	}
	return enc.Close()
}
