package sender

import (
	"reflect"

	"github.com/keboola/go-request-sender/pkg/merge"
)

// DataField is the name of the raw response field overwritten by the validated data.
const DataField = "Data"

// WithData is implemented by raw responses that can be cloned with different data.
type WithData[R any] interface {
	WithData(data any) R
}

// MergeDataIntoResponse is the default Config.MergeValidatedDataIntoResponse function.
// The raw response is never modified, a modified copy is returned.
//
// Supported responses:
//   - a type implementing the WithData interface,
//   - a record or map[string]any, the "data" key is set,
//   - a struct, or a pointer to a struct, with an exported Data field, the field is set.
//
// Other responses are returned unchanged.
func MergeDataIntoResponse[R any](response R, data any) R {
	if v, ok := any(response).(WithData[R]); ok {
		return v.WithData(data)
	}

	switch v := any(response).(type) {
	case merge.Record:
		out := merge.Clone(v)
		out["data"] = data
		if r, ok := any(out).(R); ok {
			return r
		}
		return response
	case map[string]any:
		out := map[string]any(merge.Clone(v))
		out["data"] = data
		if r, ok := any(out).(R); ok {
			return r
		}
		return response
	}

	rv := reflect.ValueOf(any(response))
	switch {
	case rv.Kind() == reflect.Struct:
		out := reflect.New(rv.Type()).Elem()
		out.Set(rv)
		if !setDataField(out, data) {
			return response
		}
		if r, ok := out.Interface().(R); ok {
			return r
		}
	case rv.Kind() == reflect.Ptr && !rv.IsNil() && rv.Elem().Kind() == reflect.Struct:
		out := reflect.New(rv.Elem().Type())
		out.Elem().Set(rv.Elem())
		if !setDataField(out.Elem(), data) {
			return response
		}
		if r, ok := out.Interface().(R); ok {
			return r
		}
	}
	return response
}

func setDataField(structValue reflect.Value, data any) bool {
	field := structValue.FieldByName(DataField)
	if !field.IsValid() || !field.CanSet() {
		return false
	}
	if data == nil {
		field.Set(reflect.Zero(field.Type()))
		return true
	}
	value := reflect.ValueOf(data)
	if !value.Type().AssignableTo(field.Type()) {
		return false
	}
	field.Set(value)
	return true
}
