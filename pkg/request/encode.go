package request

import (
	"bytes"
	jsonlib "encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/relvacode/iso8601"
	"github.com/spf13/cast"

	"github.com/keboola/go-request-sender/pkg/merge"
)

// DateFormat is used to encode date values, the format matches JavaScript Date.toJSON.
const DateFormat = "2006-01-02T15:04:05.000Z"

const upperHex = "0123456789ABCDEF"

// EncodeQueryValue encodes a single payload value to the query string.
//
// Policy, in priority order:
//   - sequence: JSON array, each element is percent-encoded individually, numbers are kept raw,
//   - date: DateFormat in UTC, percent-encoded,
//   - other structured value (map, struct, ordered map): JSON, percent-encoded,
//   - otherwise: string form, percent-encoded.
//
// The asymmetry between sequences and other values is kept for compatibility with existing consumers.
func EncodeQueryValue(value any) string {
	if items, ok := sequenceItems(value); ok {
		out := make([]any, len(items))
		for i, item := range items {
			if isNumber(item) {
				out[i] = item
			} else {
				out[i] = EncodeURIComponent(stringValue(item))
			}
		}
		return marshalString(out)
	}

	if t, ok := dateValue(value); ok {
		return EncodeURIComponent(formatDate(t))
	}

	if isStructured(value) {
		return EncodeURIComponent(marshalString(value))
	}

	return EncodeURIComponent(stringValue(value))
}

// EncodeURIComponent percent-encodes all bytes except: A-Z a-z 0-9 - _ . ! ~ * ' ( ).
// It is compatible with JavaScript encodeURIComponent function.
func EncodeURIComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
		} else {
			b.WriteByte('%')
			b.WriteByte(upperHex[c>>4])
			b.WriteByte(upperHex[c&15])
		}
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}

// stringValue returns string form of a value, it is used for path placeholders and query values.
func stringValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return v
	case []byte:
		return string(v)
	}

	if merge.IsUndefined(v) {
		return "undefined"
	}

	if t, ok := dateValue(v); ok {
		return formatDate(t)
	}

	// Nested sequence, for example [[1,2],"x"] => "1,2"
	if items, ok := sequenceItems(v); ok {
		parts := make([]string, len(items))
		for i, item := range items {
			if item != nil && !merge.IsUndefined(item) {
				parts[i] = stringValue(item)
			}
		}
		return strings.Join(parts, ",")
	}

	if str, err := cast.ToStringE(v); err == nil {
		return str
	}

	if isStructured(v) {
		return marshalString(v)
	}

	return fmt.Sprint(v)
}

func formatDate(t time.Time) string {
	return t.UTC().Format(DateFormat)
}

func dateValue(v any) (time.Time, bool) {
	switch v := v.(type) {
	case time.Time:
		return v, true
	case *time.Time:
		if v != nil {
			return *v, true
		}
	case iso8601.Time:
		return v.Time, true
	case *iso8601.Time:
		if v != nil {
			return v.Time, true
		}
	}
	return time.Time{}, false
}

func isNumber(v any) bool {
	if _, ok := v.(jsonlib.Number); ok {
		return true
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// sequenceItems returns items of a slice or array, []byte is not a sequence.
func sequenceItems(v any) ([]any, bool) {
	if _, ok := v.([]byte); ok {
		return nil, false
	}
	if items, ok := v.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// isStructured returns true for non-nil maps, structs and pointers to them.
func isStructured(v any) bool {
	if merge.IsUndefined(v) {
		return false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		return !rv.IsNil()
	case reflect.Struct:
		return true
	default:
		return false
	}
}

func marshalString(v any) string {
	out, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	// Output of a custom MarshalJSON method, for example OrderedMap, is written as it is
	var compacted bytes.Buffer
	if err := jsonlib.Compact(&compacted, out); err == nil {
		return compacted.String()
	}
	return string(out)
}
