package statement

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrUnsupportedObject is returned when a value cannot be turned into Fields.
var ErrUnsupportedObject = errors.New("statement: unsupported object type")

// Fields is an ordered column -> value mapping. Key order is insertion order
// and decides placeholder numbering.
type Fields struct {
	keys   []string
	values map[string]any
}

// NewFields returns an empty field-map.
func NewFields() *Fields {
	return &Fields{values: map[string]any{}}
}

// Of builds Fields from alternating column/value arguments.
// It panics if a column is not a string or a value is missing.
func Of(kv ...any) *Fields {
	if len(kv)%2 != 0 {
		panic("statement: Of needs column/value pairs")
	}
	f := NewFields()
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("statement: column at position %d is %T, not string", i, kv[i]))
		}
		f.Set(k, kv[i+1])
	}
	return f
}

// FromMap copies m into Fields with keys sorted, since map order is random.
func FromMap(m map[string]any) *Fields {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	f := NewFields()
	for _, k := range keys {
		f.Set(k, m[k])
	}
	return f
}

// FieldsOf converts the supported object shapes into Fields.
func FieldsOf(obj any) (*Fields, error) {
	switch v := obj.(type) {
	case *Fields:
		if v == nil {
			return nil, fmt.Errorf("%w: nil *Fields", ErrUnsupportedObject)
		}
		return v, nil
	case Fields:
		return &v, nil
	case map[string]any:
		return FromMap(v), nil
	case nil:
		return nil, fmt.Errorf("%w: nil", ErrUnsupportedObject)
	}
	return FromStruct(obj)
}

// Set stores v under k. An existing key keeps its position.
func (f *Fields) Set(k string, v any) *Fields {
	if f.values == nil {
		f.values = map[string]any{}
	}
	if _, ok := f.values[k]; !ok {
		f.keys = append(f.keys, k)
	}
	f.values[k] = v
	return f
}

// Get returns the value stored under k.
func (f *Fields) Get(k string) (any, bool) {
	v, ok := f.values[k]
	return v, ok
}

func (f *Fields) Has(k string) bool {
	_, ok := f.values[k]
	return ok
}

func (f *Fields) Len() int { return len(f.keys) }

// Keys returns the column names in order.
func (f *Fields) Keys() []string {
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Without returns a copy of f with the excluded columns removed.
func (f *Fields) Without(exclude ...string) *Fields {
	skip := make(map[string]struct{}, len(exclude))
	for _, e := range exclude {
		skip[e] = struct{}{}
	}
	out := NewFields()
	for _, k := range f.keys {
		if _, ok := skip[k]; ok {
			continue
		}
		out.Set(k, f.values[k])
	}
	return out
}

// MarshalJSON writes the fields as a JSON object in key order.
func (f Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(f.values[k])
		if err != nil {
			return nil, fmt.Errorf("marshal %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping the order of its keys. Nested
// objects and arrays are decoded as plain Go values.
func (f *Fields) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("statement: expected JSON object, got %v", tok)
	}
	*f = Fields{values: map[string]any{}}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		k, ok := tok.(string)
		if !ok {
			return fmt.Errorf("statement: expected object key, got %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("decode %q: %w", k, err)
		}
		f.Set(k, normalizeNumber(v))
	}
	_, err = dec.Token()
	return err
}

// normalizeNumber turns json.Number into int64 when it is integral.
func normalizeNumber(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if fl, err := n.Float64(); err == nil {
		return fl
	}
	return n.String()
}
