package codec

import (
	"reflect"
	"strings"
	"sync"
)

// fieldInfo describes one exported struct field.
type fieldInfo struct {
	index    int
	name     string // member key on encode, lookup key on decode
	tagged   bool   // name came from a json tag
	optional bool   // omitempty or pointer
}

// structCache maps reflect.Type -> []fieldInfo.
var structCache sync.Map

// structFields returns the cached field list for struct type t.
func structFields(t reflect.Type) []fieldInfo {
	if cached, ok := structCache.Load(t); ok {
		return cached.([]fieldInfo)
	}

	fields := make([]fieldInfo, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		info := fieldInfo{index: i, name: f.Name}
		if tag, ok := f.Tag.Lookup("json"); ok {
			name, opts, _ := strings.Cut(tag, ",")
			if name == "-" && opts == "" {
				continue
			}
			if name != "" {
				info.name = name
				info.tagged = true
			}
			info.optional = hasOption(opts, "omitempty")
		}
		if f.Type.Kind() == reflect.Pointer {
			info.optional = true
		}
		fields = append(fields, info)
	}

	actual, _ := structCache.LoadOrStore(t, fields)
	return actual.([]fieldInfo)
}

func hasOption(opts, want string) bool {
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if opt == want {
			return true
		}
	}
	return false
}
