package statement

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
)

// Column describes how one struct field maps onto a column.
type Column struct {
	Name  string
	Index []int
}

// FromStruct reads the exported fields of a struct (or pointer to struct) in
// declaration order. The column name comes from the `db` tag, otherwise the
// snake_cased field name. `db:"-"` skips a field and anonymous or
// `db:",inline"` structs are flattened. Nil pointers become nil values.
func FromStruct(obj any) (*Fields, error) {
	rv := reflect.ValueOf(obj)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("%w: nil %s", ErrUnsupportedObject, rv.Type())
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedObject, obj)
	}

	f := NewFields()
	for _, c := range StructColumns(rv.Type()) {
		fv, ok := fieldByIndex(rv, c.Index)
		if !ok {
			f.Set(c.Name, nil)
			continue
		}
		f.Set(c.Name, valueOf(fv))
	}
	return f, nil
}

// StructColumns lists the columns of struct type t in field order.
func StructColumns(t reflect.Type) []Column {
	var cols []Column
	walkStruct(t, nil, map[reflect.Type]bool{t: true}, &cols)
	return cols
}

// walkStruct appends the columns of t. seen holds the struct types on the
// current embedding path; an embed that repeats one of them is skipped.
func walkStruct(t reflect.Type, parent []int, seen map[reflect.Type]bool, cols *[]Column) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		name, inline, skip := parseTag(sf)
		if skip || !sf.IsExported() {
			continue
		}
		idx := append(append([]int(nil), parent...), i)

		ft := sf.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct && (inline || (sf.Anonymous && name == "")) {
			if !seen[ft] {
				seen[ft] = true
				walkStruct(ft, idx, seen, cols)
				delete(seen, ft)
			}
			continue
		}
		if name == "" {
			name = SnakeCase(sf.Name)
		}
		*cols = append(*cols, Column{Name: name, Index: idx})
	}
}

func parseTag(sf reflect.StructField) (name string, inline, skip bool) {
	tag, ok := sf.Tag.Lookup("db")
	if !ok {
		return "", false, false
	}
	if tag == "-" {
		return "", false, true
	}
	parts := strings.Split(tag, ",")
	for _, opt := range parts[1:] {
		if strings.TrimSpace(opt) == "inline" {
			inline = true
		}
	}
	return strings.TrimSpace(parts[0]), inline, false
}

// fieldByIndex walks idx, reporting false when it crosses a nil pointer.
func fieldByIndex(v reflect.Value, idx []int) (reflect.Value, bool) {
	for i, x := range idx {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, true
}

func valueOf(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		if v.IsNil() {
			return nil
		}
	}
	if v.Kind() == reflect.Pointer {
		return v.Elem().Interface()
	}
	return v.Interface()
}

// SnakeCase converts a Go identifier such as UserName into user_name.
func SnakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) ||
				(i+1 < len(runes) && unicode.IsLower(runes[i+1]) && unicode.IsUpper(runes[i-1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
