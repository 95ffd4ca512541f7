package dbkit

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/TechXTT/dbkit/pkg/adapter"
	"github.com/TechXTT/dbkit/pkg/statement"
)

var (
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
	timeType    = reflect.TypeOf(time.Time{})
	rowType     = reflect.TypeOf(adapter.Row{})
)

// QueryAs runs Query and decodes every row into T.
//
// T may be a struct (columns bind by `db` tag, then snake_case field name,
// then case-insensitively), a map type, a sql.Scanner or a primitive. For the
// last two the row must have exactly one column.
func QueryAs[T any](ctx context.Context, c Core, sql string, params ...any) ([]T, error) {
	rows, err := c.Query(ctx, sql, params...)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		v, err := Decode[T](r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// QueryFirstAs runs QueryFirst and decodes the row into T.
func QueryFirstAs[T any](ctx context.Context, c Core, sql string, params ...any) (out T, ok bool, err error) {
	row, ok, err := c.QueryFirst(ctx, sql, params...)
	if err != nil || !ok {
		return out, ok, err
	}
	out, err = Decode[T](row)
	return out, err == nil, err
}

// ScalarAs runs ExecuteScalar and converts the value into T.
func ScalarAs[T any](ctx context.Context, c Core, sql string, params ...any) (out T, ok bool, err error) {
	v, ok, err := c.ExecuteScalar(ctx, sql, params...)
	if err != nil || !ok {
		return out, ok, err
	}
	if err := assign(reflect.ValueOf(&out).Elem(), v); err != nil {
		return out, false, err
	}
	return out, true, nil
}

// Decode converts one row into T.
func Decode[T any](row adapter.Row) (out T, err error) {
	dst := reflect.ValueOf(&out).Elem()
	rt := dst.Type()

	switch {
	case rt.Kind() == reflect.Map && rowType.ConvertibleTo(rt):
		dst.Set(reflect.ValueOf(row).Convert(rt))
		return out, nil
	case isStruct(rt):
		return out, decodeStruct(row, dst)
	}

	if len(row) != 1 {
		return out, fmt.Errorf("dbkit: cannot decode %d columns into %s", len(row), rt)
	}
	for _, v := range row {
		err = assign(dst, v)
	}
	return out, err
}

func isStruct(rt reflect.Type) bool {
	return rt.Kind() == reflect.Struct &&
		rt != timeType &&
		!reflect.PointerTo(rt).Implements(scannerType)
}

func decodeStruct(row adapter.Row, dst reflect.Value) error {
	var folded map[string]any
	for _, col := range statement.StructColumns(dst.Type()) {
		v, ok := row[col.Name]
		if !ok {
			if folded == nil {
				folded = make(map[string]any, len(row))
				for k, rv := range row {
					folded[strings.ToLower(k)] = rv
				}
			}
			v, ok = folded[strings.ToLower(col.Name)]
		}
		if !ok {
			continue
		}
		if err := assign(fieldAlloc(dst, col.Index), v); err != nil {
			return fmt.Errorf("column %s: %w", col.Name, err)
		}
	}
	return nil
}

// fieldAlloc walks idx, allocating nil embedded pointers on the way.
func fieldAlloc(v reflect.Value, idx []int) reflect.Value {
	for i, x := range idx {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// assign stores src into dst, converting where the conversion is lossless in
// intent: numeric widening/narrowing, []byte <-> string, pointers and
// sql.Scanner destinations.
func assign(dst reflect.Value, src any) error {
	// fixed-size arrays such as pgx's [16]byte uuids convert directly
	if sv := reflect.ValueOf(src); sv.Kind() == reflect.Array && sv.Type().ConvertibleTo(dst.Type()) {
		dst.Set(sv.Convert(dst.Type()))
		return nil
	}
	if dst.CanAddr() {
		if sc, ok := dst.Addr().Interface().(sql.Scanner); ok {
			return sc.Scan(src)
		}
	}
	if src == nil {
		dst.SetZero()
		return nil
	}
	if dst.Kind() == reflect.Pointer {
		elem := reflect.New(dst.Type().Elem())
		if err := assign(elem.Elem(), src); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}

	sv := reflect.ValueOf(src)
	st := sv.Type()
	dt := dst.Type()
	switch {
	case st.AssignableTo(dt):
		dst.Set(sv)
	case sv.Kind() == reflect.Slice && st.Elem().Kind() == reflect.Uint8 && dt.Kind() == reflect.String:
		dst.SetString(string(sv.Bytes()))
	case sv.Kind() == reflect.String && dt.Kind() == reflect.Slice && dt.Elem().Kind() == reflect.Uint8:
		dst.SetBytes([]byte(sv.String()))
	case isNumber(sv.Kind()) && isNumber(dt.Kind()):
		dst.Set(sv.Convert(dt))
	case sv.Kind() == dt.Kind() && st.ConvertibleTo(dt):
		dst.Set(sv.Convert(dt))
	default:
		return fmt.Errorf("dbkit: cannot assign %T to %s", src, dt)
	}
	return nil
}
