package postgres

import (
	"reflect"
	"sync"
)

// column is a db-tagged field reachable from a struct type, possibly through embedded structs.
type column struct {
	name  string
	index []int
}

var columnCache sync.Map // map[reflect.Type][]column

func columnsOf(t reflect.Type) []column {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := columnCache.Load(t); ok {
		return cached.([]column)
	}

	var cols []column
	var walk func(t reflect.Type, prefix []int)
	walk = func(t reflect.Type, prefix []int) {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			index := append(append([]int(nil), prefix...), i)

			if field.Anonymous && field.Type.Kind() == reflect.Struct {
				walk(field.Type, index)
				continue
			}

			tag := field.Tag.Get("db")
			if tag == "" || tag == "-" {
				continue
			}
			cols = append(cols, column{name: tag, index: index})
		}
	}
	if t.Kind() == reflect.Struct {
		walk(t, nil)
	}

	columnCache.Store(t, cols)
	return cols
}

// ExtractDBColumns extracts all column names from struct "db" tags, flattening
// embedded structs. Repositories call it once at construction.
func ExtractDBColumns[T any]() []string {
	var zero T
	cols := columnsOf(reflect.TypeOf(zero))
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	return names
}

// StructToMap converts a struct to a column -> value map using "db" tags.
func StructToMap(v any) map[string]any {
	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Struct {
		return nil
	}
	cols := columnsOf(rv.Type())
	res := make(map[string]any, len(cols))
	for _, c := range cols {
		res[c.name] = rv.FieldByIndex(c.index).Interface()
	}
	return res
}

// StructValues returns the values of the given columns in order, for COPY rows.
// Unknown columns yield nil.
func StructValues(v any, columns []string) []any {
	m := StructToMap(v)
	out := make([]any, len(columns))
	for i, name := range columns {
		out[i] = m[name]
	}
	return out
}
