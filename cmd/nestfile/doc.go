package main

import (
	"fmt"
	"reflect"

	"github.com/andreyvit/nestfile"
)

// docFromValue turns a loaded value into data YAML and JSON encoders accept:
// mappings become map[string]any keyed by node name, arrays become nested
// []any, complex numbers become strings.
func docFromValue(v nestfile.Value) any {
	if m, ok := v.(*nestfile.Mapping); ok {
		out := make(map[string]any, m.Len())
		for k, e := range m.All() {
			out[k.String()] = docFromValue(e)
		}
		return out
	}
	return plain(reflect.ValueOf(nestfile.ToGo(v)))
}

func plain(rv reflect.Value) any {
	if !rv.IsValid() {
		return nil
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = plain(rv.Index(i))
		}
		return out
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = plain(iter.Value())
		}
		return out
	case reflect.Complex64, reflect.Complex128:
		return fmt.Sprint(rv.Complex())
	case reflect.Interface:
		return plain(rv.Elem())
	default:
		return rv.Interface()
	}
}
