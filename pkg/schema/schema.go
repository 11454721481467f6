// Package schema provides the JSON Schema validator of the request sender, see NewValidator.
//
// Schemas are set by the "requestSchema" and "responseSchema" options,
// the value can be a *jsonschema.Schema or a JSON document of the schema as a string or []byte.
package schema

import (
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/mapstructure"

	"github.com/keboola/go-request-sender/pkg/request"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals

// Options of the validator, the "validationOptions" option.
type Options struct {
	// Normalize returns the payload converted to plain JSON values instead of the original payload.
	Normalize bool `mapstructure:"normalize"`
}

// ValidationError is returned if the payload doesn't match the schema.
type ValidationError struct {
	Direction request.Direction
	Err       error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s validation failed: %s", e.Direction, e.Err.Error())
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

type validator struct {
	lock     *sync.Mutex
	pointers map[*jsonschema.Schema]*jsonschema.Resolved
	docs     map[string]*jsonschema.Resolved
}

// NewValidator creates request.ValidatorFunc backed by github.com/google/jsonschema-go.
//
// The payload is converted to plain JSON values before validation.
// If the schema is nil, the payload is returned unchanged.
// Resolved schemas are cached, so use the same schema pointer for repeated calls.
func NewValidator() request.ValidatorFunc {
	v := &validator{
		lock:     &sync.Mutex{},
		pointers: make(map[*jsonschema.Schema]*jsonschema.Resolved),
		docs:     make(map[string]*jsonschema.Resolved),
	}
	return v.validate
}

func (v *validator) validate(args request.ValidateArgs) (any, error) {
	if args.Schema == nil {
		return args.Data, nil
	}

	opts, err := DecodeOptions(args.Options)
	if err != nil {
		return nil, err
	}

	resolved, err := v.resolve(args.Schema)
	if err != nil {
		return nil, fmt.Errorf("invalid %s schema: %w", args.Direction, err)
	}

	normalized, err := Normalize(args.Data)
	if err != nil {
		return nil, &ValidationError{Direction: args.Direction, Err: err}
	}

	if err := resolved.Validate(normalized); err != nil {
		return nil, &ValidationError{Direction: args.Direction, Err: err}
	}

	if opts.Normalize {
		return normalized, nil
	}
	return args.Data, nil
}

func (v *validator) resolve(value any) (*jsonschema.Resolved, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	switch s := value.(type) {
	case *jsonschema.Schema:
		if r, found := v.pointers[s]; found {
			return r, nil
		}
		r, err := s.Resolve(&jsonschema.ResolveOptions{})
		if err != nil {
			return nil, err
		}
		v.pointers[s] = r
		return r, nil
	case string:
		return v.resolveDocument(s)
	case []byte:
		return v.resolveDocument(string(s))
	default:
		return nil, fmt.Errorf(`unexpected schema type "%T"`, value)
	}
}

func (v *validator) resolveDocument(doc string) (*jsonschema.Resolved, error) {
	if r, found := v.docs[doc]; found {
		return r, nil
	}
	s := &jsonschema.Schema{}
	if err := json.UnmarshalFromString(doc, s); err != nil {
		return nil, err
	}
	r, err := s.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return nil, err
	}
	v.docs[doc] = r
	return r, nil
}

// DecodeOptions converts the "validationOptions" option value to the Options.
func DecodeOptions(value any) (Options, error) {
	out := Options{}
	switch v := value.(type) {
	case nil:
		return out, nil
	case Options:
		return v, nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{WeaklyTypedInput: true, Result: &out})
	if err != nil {
		return out, err
	}
	if err := decoder.Decode(value); err != nil {
		return out, fmt.Errorf("invalid validation options: %w", err)
	}
	return out, nil
}

// Normalize converts the value to plain JSON values: map[string]any, []any, string, float64, bool or nil.
func Normalize(value any) (any, error) {
	bytes, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("cannot encode payload to JSON: %w", err)
	}
	var out any
	if err := json.Unmarshal(bytes, &out); err != nil {
		return nil, fmt.Errorf("cannot decode payload from JSON: %w", err)
	}
	return out, nil
}
