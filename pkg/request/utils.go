package request

import (
	jsonlib "encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/keboola/go-utils/pkg/orderedmap"
	"github.com/spf13/cast"

	"github.com/keboola/go-request-sender/pkg/merge"
)

// ToFormBody converts a JSON like payload to form body values.
// Sequences are mapped to "key[index]" and nested records to "key[subKey]" fields, other values to string.
func ToFormBody(in any) map[string]string {
	out := make(map[string]string)
	view := viewOf(in)
	if view == nil {
		return out
	}
	for _, k := range view.keys() {
		v, _ := view.get(k)
		if merge.IsUndefined(v) {
			continue
		}
		if items, ok := sequenceItems(v); ok {
			for i, item := range items {
				out[fmt.Sprintf("%s[%d]", k, i)] = castToString(item)
			}
		} else if nested, ok := merge.AsRecord(v); ok {
			for nestedKey, nestedValue := range nested {
				out[fmt.Sprintf("%s[%s]", k, nestedKey)] = castToString(nestedValue)
			}
		} else if nested, ok := v.(map[string]string); ok {
			for nestedKey, nestedValue := range nested {
				out[fmt.Sprintf("%s[%s]", k, nestedKey)] = nestedValue
			}
		} else {
			out[k] = castToString(v)
		}
	}
	return out
}

// StructToMap converts a struct to an ordered map, fields are kept in the definition order.
// Only defined allowedFields are converted.
// If allowedFields = nil, then all fields are exported.
//
// Field name is read from `writeas` tag or from "json" tag as fallback, otherwise the Go field name is used.
// Field with tag `readonly:"true"` is ignored.
// Field with tag `writeoptional:"true"` or with "omitempty" json option is exported only if value is not empty.
func StructToMap(in any, allowedFields []string) *orderedmap.OrderedMap {
	out := orderedmap.New()
	allowed := make(map[string]bool)
	for _, field := range allowedFields {
		allowed[field] = true
	}
	structToMap(reflect.ValueOf(in), out, allowed)
	return out
}

func structToMap(in reflect.Value, out *orderedmap.OrderedMap, allowed map[string]bool) {
	// Initialize
	for in.Kind() == reflect.Ptr || in.Kind() == reflect.Interface {
		if in.IsNil() {
			return
		}
		in = in.Elem()
	}
	if in.Kind() != reflect.Struct {
		return
	}
	t := in.Type()

	// Iterate over fields
	for i := range t.NumField() {
		field := t.Field(i)
		fieldValue := in.Field(i)

		// Process embedded type
		if field.Anonymous {
			structToMap(fieldValue, out, allowed)
			continue
		}

		// Skip unexported field
		if !field.IsExported() {
			continue
		}

		// Skip field with tag `readonly:"true"`
		if field.Tag.Get("readonly") == "true" {
			continue
		}

		// Skip optional field with empty value
		jsonTag := strings.Split(field.Tag.Get("json"), ",")
		omitEmpty := len(jsonTag) > 1 && jsonTag[1] == "omitempty"
		if (field.Tag.Get("writeoptional") == "true" || omitEmpty) && fieldValue.IsZero() {
			continue
		}

		// Get field name
		var fieldName string
		if v := field.Tag.Get("writeas"); v != "" {
			fieldName = v
		} else if v := jsonTag[0]; v != "" {
			fieldName = v
		} else {
			fieldName = field.Name
		}

		// Skip ignored fields
		if fieldName == "-" {
			continue
		}

		// Is allowed?
		if len(allowed) > 0 && !allowed[fieldName] {
			continue
		}

		// Ok, add to map
		out.Set(fieldName, fieldValue.Interface())
	}
}

func cloneOrderedMap(in *orderedmap.OrderedMap) *orderedmap.OrderedMap {
	out := orderedmap.New()
	for _, k := range in.Keys() {
		v, _ := in.Get(k)
		out.Set(k, v)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func castToString(v any) string {
	// Ordered map
	if orderedMap, ok := v.(*orderedmap.OrderedMap); ok {
		// Standard json encoding library is used.
		// JsonIter lib returns non-compact JSON,
		// if custom OrderedMap.MarshalJSON method is used.
		if out, err := jsonlib.Marshal(orderedMap); err == nil {
			return string(out)
		}
	}

	// Other types
	if out, err := cast.ToStringE(v); err == nil {
		return out
	}
	return stringValue(v)
}
