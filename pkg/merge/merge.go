// Package merge provides deep merging of plain key/value records.
//
// A Record is the only value treated as a "plain mapping".
// Any other value (slice, struct, time, pointer, schema, ...) is opaque and is never merged recursively.
package merge

import (
	"maps"
	"reflect"
)

// Record is a plain key/value mapping.
type Record map[string]any

type undefined struct{}

func (undefined) String() string {
	return "undefined"
}

// MarshalJSON encodes Undefined as null, for example a hole in a sequence payload.
func (undefined) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// Undefined marks a key as absent.
// DeepMerge does not adopt Undefined values and removes keys set to Undefined in the primary record.
var Undefined any = undefined{} //nolint:gochecknoglobals

// IsUndefined returns true if the value is the Undefined sentinel.
func IsUndefined(v any) bool {
	_, ok := v.(undefined)
	return ok
}

// IsRecord returns true for Record and untyped map[string]any values.
func IsRecord(v any) bool {
	_, ok := AsRecord(v)
	return ok
}

// AsRecord converts a record-like value to the Record type, without copying.
func AsRecord(v any) (Record, bool) {
	switch v := v.(type) {
	case Record:
		return v, true
	case map[string]any:
		return v, true
	default:
		return nil, false
	}
}

// Clone returns a shallow copy of the record, nil is converted to an empty record.
func Clone(r Record) Record {
	out := make(Record, len(r))
	maps.Copy(out, r)
	return out
}

// DeepMerge merges secondary into a shallow copy of primary, values from primary take precedence.
//
// For each key of secondary:
//   - missing in primary: the value is adopted, unless it is Undefined,
//   - deeply equal values: nothing to do,
//   - record value in secondary: merged recursively with the primary value (non-record primary value is replaced),
//   - other values: primary wins.
//
// A primary key holding Undefined is removed if secondary contains the same key.
// Neither argument is modified.
func DeepMerge(primary, secondary Record) Record {
	out := Clone(primary)
	for key, value := range secondary {
		current, found := out[key]
		if found && reflect.DeepEqual(current, value) {
			continue
		}

		if !found {
			if !IsUndefined(value) {
				out[key] = value
			}
			continue
		}

		if nested, ok := AsRecord(value); ok {
			base, _ := AsRecord(current)
			out[key] = DeepMerge(base, nested)
		}

		if IsUndefined(out[key]) {
			delete(out, key)
		}
	}
	return out
}
