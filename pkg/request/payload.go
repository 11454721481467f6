package request

import (
	"io"
	"mime/multipart"
	"net/url"
	"reflect"
	"strconv"

	"github.com/keboola/go-utils/pkg/orderedmap"

	"github.com/keboola/go-request-sender/pkg/merge"
)

// view is a working view of a payload, used for placeholders substitution and query building.
type view interface {
	get(key string) (any, bool)
	delete(key string)
	keys() []string
}

// recordView iterates keys in the sorted order, Go maps have no natural order.
type recordView map[string]any

func (v recordView) get(key string) (any, bool) {
	value, found := v[key]
	return value, found
}

func (v recordView) delete(key string) {
	delete(v, key)
}

func (v recordView) keys() []string {
	return sortedKeys(v)
}

// orderedView iterates keys in the insertion order.
type orderedView struct {
	*orderedmap.OrderedMap
}

func (v orderedView) get(key string) (any, bool) {
	return v.Get(key)
}

func (v orderedView) delete(key string) {
	v.Delete(key)
}

func (v orderedView) keys() []string {
	return v.Keys()
}

// sequenceView uses decimal indexes as keys.
// A deleted item is replaced by merge.Undefined, so indexes of other items are kept.
type sequenceView []any

func (v sequenceView) get(key string) (any, bool) {
	i, err := strconv.Atoi(key)
	if err != nil || i < 0 || i >= len(v) {
		return nil, false
	}
	return v[i], true
}

func (v sequenceView) delete(key string) {
	if i, err := strconv.Atoi(key); err == nil && i >= 0 && i < len(v) {
		v[i] = merge.Undefined
	}
}

func (v sequenceView) keys() []string {
	out := make([]string, len(v))
	for i := range v {
		out[i] = strconv.Itoa(i)
	}
	return out
}

// viewOf wraps a structured payload without copying it.
// Structs are converted to an ordered map. Nil is returned for opaque values.
func viewOf(payload any) view {
	switch v := payload.(type) {
	case nil:
		return nil
	case merge.Record:
		return recordView(v)
	case map[string]any:
		return recordView(v)
	case *orderedmap.OrderedMap:
		if v == nil {
			return nil
		}
		return orderedView{OrderedMap: v}
	case []any:
		return sequenceView(v)
	}

	if items, ok := sequenceItems(payload); ok {
		return sequenceView(items)
	}

	if isStructPayload(payload) {
		return orderedView{OrderedMap: StructToMap(payload, nil)}
	}

	return nil
}

// isForm returns true for multipart form payloads, the transport always receives them unchanged.
func isForm(payload any) bool {
	switch v := payload.(type) {
	case *multipart.Form:
		return v != nil
	case url.Values:
		return true
	default:
		return false
	}
}

// isRawBody returns true for opaque request bodies.
func isRawBody(payload any) bool {
	switch payload.(type) {
	case string, []byte, io.Reader:
		return true
	default:
		return false
	}
}

func isStructPayload(payload any) bool {
	rv := reflect.ValueOf(payload)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	return rv.Kind() == reflect.Struct
}

// normalizePayload creates a working copy of the payload:
//   - sequence is shallow-copied to []any,
//   - form is converted to an ordered map of its entries, the last value of a key wins,
//   - record is shallow-copied, ordered map is cloned,
//   - struct is converted to an ordered map,
//   - raw body is returned unchanged,
//   - nil and other scalars are converted to an empty map.
func normalizePayload(data any) any {
	if isRawBody(data) {
		return data
	}

	switch v := data.(type) {
	case nil:
		return make(map[string]any)
	case *multipart.Form:
		out := orderedmap.New()
		if v == nil {
			return out
		}
		for _, key := range sortedKeys(v.Value) {
			if values := v.Value[key]; len(values) > 0 {
				out.Set(key, values[len(values)-1])
			}
		}
		for _, key := range sortedKeys(v.File) {
			if files := v.File[key]; len(files) > 0 {
				out.Set(key, files[len(files)-1])
			}
		}
		return out
	case url.Values:
		out := orderedmap.New()
		for _, key := range sortedKeys(v) {
			if values := v[key]; len(values) > 0 {
				out.Set(key, values[len(values)-1])
			}
		}
		return out
	case merge.Record:
		return merge.Clone(v)
	case map[string]any:
		return map[string]any(merge.Clone(v))
	case *orderedmap.OrderedMap:
		if v == nil {
			return make(map[string]any)
		}
		return cloneOrderedMap(v)
	}

	if items, ok := sequenceItems(data); ok {
		out := make([]any, len(items))
		copy(out, items)
		return out
	}

	if isStructPayload(data) {
		return StructToMap(data, nil)
	}

	return make(map[string]any)
}
