package request_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/keboola/go-request-sender/pkg/merge"
	. "github.com/keboola/go-request-sender/pkg/request"
)

func TestOptions_ZeroValue(t *testing.T) {
	t.Parallel()
	var o Options
	assert.True(t, o.IsEmpty())
	assert.Nil(t, o.RequestSchema())
	assert.Nil(t, o.ResponseSchema())
	assert.Nil(t, o.ValidationOptions())
	assert.Nil(t, o.RequestConfig())
	assert.False(t, o.AvoidBlockingRequest())
	assert.False(t, o.ReturnRawResponse())
	assert.Equal(t, merge.Record{}, o.ToRecord())
}

func TestOptions_Immutability(t *testing.T) {
	t.Parallel()
	var a, b Options
	a = NewOptions()

	// WithRequestSchema
	a = a.WithRequestSchema("schema1")
	b = a.WithRequestSchema("schema2")
	assert.Equal(t, "schema1", a.RequestSchema())
	assert.Equal(t, "schema2", b.RequestSchema())

	// WithResponseSchema
	a = a.WithResponseSchema("schema1")
	b = a.WithResponseSchema("schema2")
	assert.Equal(t, "schema1", a.ResponseSchema())
	assert.Equal(t, "schema2", b.ResponseSchema())

	// WithValidationOptions
	a = a.WithValidationOptions(merge.Record{"foo": 1})
	b = a.WithValidationOptions(merge.Record{"foo": 2})
	assert.Equal(t, merge.Record{"foo": 1}, a.ValidationOptions())
	assert.Equal(t, merge.Record{"foo": 2}, b.ValidationOptions())

	// WithRequestConfig
	a = a.WithRequestConfig(merge.Record{"timeout": "1s"})
	b = a.WithRequestConfig(merge.Record{"timeout": "2s"})
	assert.Equal(t, merge.Record{"timeout": "1s"}, a.RequestConfig())
	assert.Equal(t, merge.Record{"timeout": "2s"}, b.RequestConfig())

	// AndRequestConfig
	b = a.AndRequestConfig("headers", merge.Record{"X-Foo": "bar"})
	assert.Equal(t, merge.Record{"timeout": "1s"}, a.RequestConfig())
	assert.Equal(t, merge.Record{"timeout": "1s", "headers": merge.Record{"X-Foo": "bar"}}, b.RequestConfig())
	b = b.AndRequestConfig("headers", merge.Record{"X-Foo": "baz", "X-Bar": "1"})
	assert.Equal(t, merge.Record{"timeout": "1s", "headers": merge.Record{"X-Foo": "baz", "X-Bar": "1"}}, b.RequestConfig())

	// WithAvoidBlockingRequest
	a = a.WithAvoidBlockingRequest(true)
	b = a.WithAvoidBlockingRequest(false)
	assert.True(t, a.AvoidBlockingRequest())
	assert.False(t, b.AvoidBlockingRequest())

	// WithReturnRawResponse
	a = a.WithReturnRawResponse(true)
	b = a.WithReturnRawResponse(false)
	assert.True(t, a.ReturnRawResponse())
	assert.False(t, b.ReturnRawResponse())

	// Without
	b = a.Without(OptionReturnRawResponse)
	assert.True(t, a.ReturnRawResponse())
	_, found := b.Get(OptionReturnRawResponse)
	assert.False(t, found)
}

func TestMergeOptions(t *testing.T) {
	t.Parallel()
	defaults := NewOptions().
		WithAvoidBlockingRequest(true).
		WithResponseSchema("default-schema").
		WithRequestConfig(merge.Record{"timeout": "5s", "headers": merge.Record{"X-App": "app", "X-Env": "prod"}})

	// Empty per-call options
	assert.Equal(t, defaults.ToRecord(), MergeOptions(Options{}, defaults).ToRecord())

	// Per-call options win, nested records are merged
	current := NewOptions().
		WithAvoidBlockingRequest(false).
		WithReturnRawResponse(true).
		WithRequestConfig(merge.Record{"headers": merge.Record{"X-Env": "dev"}})
	final := MergeOptions(current, defaults)
	assert.False(t, final.AvoidBlockingRequest())
	assert.True(t, final.ReturnRawResponse())
	assert.Equal(t, "default-schema", final.ResponseSchema())
	assert.Equal(t, merge.Record{"timeout": "5s", "headers": merge.Record{"X-App": "app", "X-Env": "dev"}}, final.RequestConfig())

	// Undefined clears a default option
	final = MergeOptions(NewOptions().WithResponseSchema(merge.Undefined), defaults)
	assert.Nil(t, final.ResponseSchema())
	_, found := final.Get(OptionResponseSchema)
	assert.False(t, found)

	// Inputs are not modified
	assert.True(t, defaults.AvoidBlockingRequest())
	assert.Equal(t, merge.Record{"headers": merge.Record{"X-Env": "dev"}}, current.RequestConfig())
}
