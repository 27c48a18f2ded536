package nestfile

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

var typeInfoCache sync.Map

type structInfo struct {
	fields []structField
}

type structField struct {
	name  string
	index []int
	omit  bool // omitempty
}

// reflectStruct returns the stored fields of a struct type: exported fields,
// named by their `nestfile` tag when present, skipping those tagged "-".
func reflectStruct(typ reflect.Type) *structInfo {
	if v, ok := typeInfoCache.Load(typ); ok {
		return v.(*structInfo)
	}
	info := reflectStructWithoutCache(typ)
	actual, _ := typeInfoCache.LoadOrStore(typ, info)
	return actual.(*structInfo)
}

func reflectStructWithoutCache(typ reflect.Type) *structInfo {
	if typ.Kind() != reflect.Struct {
		panic(fmt.Errorf("%v not a struct", typ))
	}
	info := &structInfo{}
	for _, f := range reflect.VisibleFields(typ) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		name, opts, _ := strings.Cut(f.Tag.Get("nestfile"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		info.fields = append(info.fields, structField{
			name:  name,
			index: f.Index,
			omit:  opts == "omitempty",
		})
	}
	return info
}
