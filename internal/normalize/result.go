package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Field is one named value of a normalized object.
type Field struct {
	Key   string
	Value json.RawMessage
}

// Result is an ordered JSON object plus out-of-band normalization metadata.
// Only Fields are serialized.
type Result struct {
	Fields   []Field
	Fallback bool
	Raw      string
}

// MarshalJSON writes Fields as an object in their original order.
func (r Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if len(f.Value) == 0 {
			buf.WriteString("null")
			continue
		}
		if err := json.Compact(&buf, f.Value); err != nil {
			return nil, fmt.Errorf("normalize: field %q: %w", f.Key, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON restores Fields from an object, keeping key order.
func (r *Result) UnmarshalJSON(data []byte) error {
	fields, err := parseObject(data)
	if err != nil {
		return err
	}
	r.Fields = fields
	return nil
}

// Get returns the raw value stored under key.
func (r Result) Get(key string) (json.RawMessage, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// String returns the value under key when it is a JSON string.
func (r Result) String(key string) string {
	raw, ok := r.Get(key)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// Strings returns the value under key when it is an array of strings; other
// element types are skipped.
func (r Result) Strings(key string) []string {
	raw, ok := r.Get(key)
	if !ok {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if json.Unmarshal(item, &s) == nil && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// Object returns the nested object under key as its own Result.
func (r Result) Object(key string) (Result, bool) {
	raw, ok := r.Get(key)
	if !ok {
		return Result{}, false
	}
	fields, err := parseObject(raw)
	if err != nil {
		return Result{}, false
	}
	return Result{Fields: fields}, true
}

func (r Result) clone() Result {
	out := Result{Fallback: r.Fallback, Raw: r.Raw, Fields: make([]Field, len(r.Fields))}
	for i, f := range r.Fields {
		out.Fields[i] = Field{Key: f.Key, Value: append(json.RawMessage(nil), f.Value...)}
	}
	return out
}

var errNotObject = errors.New("normalize: not a JSON object")

// parseObject decodes a single JSON object into ordered fields. Repeated keys
// keep their first position and take the last value.
func parseObject(data []byte) ([]Field, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errNotObject
	}
	var fields []Field
	index := map[string]int{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errNotObject
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		if i, seen := index[key]; seen {
			fields[i].Value = value
			continue
		}
		index[key] = len(fields)
		fields = append(fields, Field{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err == nil {
		return nil, errors.New("normalize: trailing data after object")
	}
	return fields, nil
}
