package request

import (
	"github.com/spf13/cast"

	"github.com/keboola/go-request-sender/pkg/merge"
)

const (
	OptionRequestSchema        = "requestSchema"
	OptionResponseSchema       = "responseSchema"
	OptionValidationOptions    = "validationOptions"
	OptionRequestConfig        = "requestConfig"
	OptionAvoidBlockingRequest = "avoidBlockingRequest"
	OptionReturnRawResponse    = "returnRawResponse"
)

// Options is an immutable set of per-call or default options.
// All With* methods return a modified clone.
//
// Options are stored as a merge.Record, so per-call options can be deep merged over the default options.
// A zero value is valid and contains no option.
type Options struct {
	values merge.Record
}

// NewOptions creates empty Options.
func NewOptions() Options {
	return Options{values: make(merge.Record)}
}

// OptionsFromRecord creates Options from a record, the record is copied.
func OptionsFromRecord(r merge.Record) Options {
	return Options{values: merge.Clone(r)}
}

// MergeOptions merges current options over the default options, see merge.DeepMerge.
func MergeOptions(current, defaults Options) Options {
	return Options{values: merge.DeepMerge(current.values, defaults.values)}
}

// ToRecord returns a shallow copy of the options record.
func (o Options) ToRecord() merge.Record {
	return merge.Clone(o.values)
}

// IsEmpty returns true if no option is set.
func (o Options) IsEmpty() bool {
	return len(o.values) == 0
}

// Get returns a raw option value.
func (o Options) Get(key string) (any, bool) {
	v, found := o.values[key]
	if found && merge.IsUndefined(v) {
		return nil, false
	}
	return v, found
}

// RequestSchema returns schema used to validate the request payload, if any.
func (o Options) RequestSchema() any {
	v, _ := o.Get(OptionRequestSchema)
	return v
}

// ResponseSchema returns schema used to validate the response data, if any.
func (o Options) ResponseSchema() any {
	v, _ := o.Get(OptionResponseSchema)
	return v
}

// ValidationOptions returns options passed to the validator, if any.
func (o Options) ValidationOptions() any {
	v, _ := o.Get(OptionValidationOptions)
	return v
}

// RequestConfig returns the transport configuration, if any.
func (o Options) RequestConfig() any {
	v, _ := o.Get(OptionRequestConfig)
	return v
}

// AvoidBlockingRequest returns true if the call should not wait for the blocking request.
func (o Options) AvoidBlockingRequest() bool {
	v, _ := o.Get(OptionAvoidBlockingRequest)
	return cast.ToBool(v)
}

// ReturnRawResponse returns true if the call should return the whole raw response instead of the data.
func (o Options) ReturnRawResponse() bool {
	v, _ := o.Get(OptionReturnRawResponse)
	return cast.ToBool(v)
}

// With sets a raw option value. Use merge.Undefined to clear a default option in per-call options.
func (o Options) With(key string, value any) Options {
	o.values = merge.Clone(o.values)
	o.values[key] = value
	return o
}

// Without removes the option.
func (o Options) Without(key string) Options {
	o.values = merge.Clone(o.values)
	delete(o.values, key)
	return o
}

func (o Options) WithRequestSchema(schema any) Options {
	return o.With(OptionRequestSchema, schema)
}

func (o Options) WithResponseSchema(schema any) Options {
	return o.With(OptionResponseSchema, schema)
}

func (o Options) WithValidationOptions(options any) Options {
	return o.With(OptionValidationOptions, options)
}

// WithRequestConfig replaces the transport configuration.
// A merge.Record value is deep merged with the default request config, other values are opaque.
func (o Options) WithRequestConfig(config any) Options {
	return o.With(OptionRequestConfig, config)
}

// AndRequestConfig sets one key of the transport configuration.
// Record values are deep merged with the existing value of the key.
func (o Options) AndRequestConfig(key string, value any) Options {
	current, _ := merge.AsRecord(o.RequestConfig())
	return o.With(OptionRequestConfig, merge.DeepMerge(merge.Record{key: value}, current))
}

func (o Options) WithAvoidBlockingRequest(v bool) Options {
	return o.With(OptionAvoidBlockingRequest, v)
}

func (o Options) WithReturnRawResponse(v bool) Options {
	return o.With(OptionReturnRawResponse, v)
}
