package parse

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Record hasil parse satu balasan model. Fallback=true berarti tidak ada blok
// terstruktur yang bisa didecode; cuma Raw yang terisi.
type Record struct {
	fields   map[string]any
	Raw      string
	Fallback bool
}

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// Structured extracts a JSON object from a free-form model reply. It tries, in
// order: a fenced code block, the whole text, the first-to-last brace substring.
// It never fails; a reply with no decodable block degrades to a raw-only record.
// Callers must treat that as "low confidence, no structured fields", not an error.
func Structured(raw string) Record {
	trimmed := strings.TrimSpace(raw)

	if m := fenceRe.FindStringSubmatch(trimmed); m != nil {
		if f, ok := tryDecode(m[1]); ok {
			return Record{fields: f, Raw: raw}
		}
	}

	if f, ok := tryDecode(trimmed); ok {
		return Record{fields: f, Raw: raw}
	}

	// agent replies often wrap JSON in prose; scan braces
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start != -1 && end > start {
		if f, ok := tryDecode(trimmed[start : end+1]); ok {
			return Record{fields: f, Raw: raw}
		}
	}

	return Record{Raw: raw, Fallback: true}
}

func tryDecode(s string) (map[string]any, bool) {
	var f map[string]any
	if err := json.Unmarshal([]byte(s), &f); err != nil {
		return nil, false
	}
	return f, true
}

// Int reads a numeric field, tolerating the float64 that encoding/json produces.
func (r Record) Int(key string) (int, bool) {
	v, ok := r.fields[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n + 0.5), true
	case int:
		return n, true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
	}
	return 0, false
}

// Float reads a float field.
func (r Record) Float(key string) (float64, bool) {
	v, ok := r.fields[key]
	if !ok {
		return 0, false
	}
	if f, ok := v.(float64); ok {
		return f, true
	}
	return 0, false
}

// String reads a string field.
func (r Record) String(key string) (string, bool) {
	v, ok := r.fields[key]
	if !ok {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return "", false
}

// Bool reads a boolean field.
func (r Record) Bool(key string) (bool, bool) {
	v, ok := r.fields[key]
	if !ok {
		return false, false
	}
	if b, ok := v.(bool); ok {
		return b, true
	}
	return false, false
}

// StringSlice reads an array of strings, skipping non-string members.
func (r Record) StringSlice(key string) []string {
	v, ok := r.fields[key]
	if !ok {
		return nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, it := range arr {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Object reads a nested object as a sub-record.
func (r Record) Object(key string) (Record, bool) {
	v, ok := r.fields[key]
	if !ok {
		return Record{Fallback: true}, false
	}
	m, ok := v.(map[string]any)
	if !ok {
		return Record{Fallback: true}, false
	}
	return Record{fields: m}, true
}

// Has reports field presence.
func (r Record) Has(key string) bool {
	_, ok := r.fields[key]
	return ok
}
