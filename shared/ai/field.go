package ai

import (
	"bytes"
	"encoding/json"
	"strings"
)

// FieldKind tags the shape a model returned for one response field.
type FieldKind int

const (
	FieldUnknown FieldKind = iota
	FieldText
	FieldList
)

// Pair is one key/value of an object inside a list, in source order.
type Pair struct {
	Key   string
	Value string
}

// Entry is one element of a list field. Objects keep their pairs; every
// other element is reduced to Text.
type Entry struct {
	Text   string
	Pairs  []Pair
	Object bool
}

func (e Entry) String() string {
	if !e.Object {
		return e.Text
	}
	parts := make([]string, len(e.Pairs))
	for i, p := range e.Pairs {
		parts[i] = p.Key + ": " + p.Value
	}
	return strings.Join(parts, " | ")
}

// Field is a loosely typed model output value.
type Field struct {
	Kind    FieldKind
	Text    string
	Entries []Entry
	Raw     json.RawMessage
}

// ParseField classifies raw. Missing values and null parse as an empty Unknown.
func ParseField(raw json.RawMessage) Field {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Field{Kind: FieldUnknown}
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return Field{Kind: FieldText, Text: s}
		}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err == nil {
			entries := make([]Entry, 0, len(items))
			for _, item := range items {
				entries = append(entries, parseEntry(item))
			}
			return Field{Kind: FieldList, Entries: entries}
		}
	}
	return Field{Kind: FieldUnknown, Raw: trimmed}
}

func parseEntry(raw json.RawMessage) Entry {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if pairs, err := orderedPairs(trimmed); err == nil {
			return Entry{Pairs: pairs, Object: true}
		}
	}
	return Entry{Text: scalarText(trimmed)}
}

// orderedPairs walks an object with the token decoder, since decoding into
// a map would lose key order.
func orderedPairs(raw json.RawMessage) ([]Pair, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	var pairs []Pair
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		pairs = append(pairs, Pair{Key: key, Value: scalarText(value)})
	}
	return pairs, nil
}

// scalarText renders strings unquoted and anything else as compact JSON.
func scalarText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return string(trimmed)
	}
	return buf.String()
}

// Flatten renders f as display text. Lists become one paragraph per entry,
// objects become indented JSON and null becomes the empty string.
func (f Field) Flatten() string {
	switch f.Kind {
	case FieldText:
		return f.Text
	case FieldList:
		parts := make([]string, len(f.Entries))
		for i, e := range f.Entries {
			parts[i] = e.String()
		}
		return strings.Join(parts, "\n\n")
	}

	if len(f.Raw) == 0 {
		return ""
	}
	if f.Raw[0] == '{' {
		var compact, buf bytes.Buffer
		if err := json.Compact(&compact, f.Raw); err == nil {
			if err := json.Indent(&buf, compact.Bytes(), "", "  "); err == nil {
				return buf.String()
			}
		}
	}
	return string(f.Raw)
}
