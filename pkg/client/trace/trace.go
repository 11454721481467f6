// Package trace extends the httptrace.ClientTrace and adds hooks for the client.Client requests.
// A custom ClientTrace definition can be registered in the client.Client by the AndTrace method.
package trace

import (
	"context"
	"net/http"
	"net/http/httptrace"
	"reflect"
	"time"

	"github.com/keboola/go-request-sender/pkg/request"
)

// Factory creates ClientTrace hooks for a request.
type Factory func(ctx context.Context, req request.ValidatedRequest) (context.Context, *ClientTrace)

// ClientTrace is a set of hooks to run at various stages of an outgoing request.
type ClientTrace struct {
	httptrace.ClientTrace // native, low level trace
	// HTTPRequestStart is called when the request begins. It includes redirects and retries.
	HTTPRequestStart func(request *http.Request)
	// HTTPRequestDone is called when the request completes. It includes redirects and retries.
	HTTPRequestDone func(response *http.Response, err error)
	// HTTPRequestRetry is called before retry delay.
	HTTPRequestRetry func(attempt int, delay time.Duration)
	// ResponseBodyRead is called when the response body is read, with the number of decoded bytes.
	ResponseBodyRead func(bytes int64, err error)
	// RequestProcessed is called when the Client.SendValidatedRequest method is done.
	RequestProcessed func(response any, err error)
}

// Compose modifies t such that it respects the previously-registered hooks in old.
// Hooks of the embedded httptrace.ClientTrace are composed too, the old hook is called first.
func (t *ClientTrace) Compose(old *ClientTrace) {
	if old == nil {
		return
	}
	compose(reflect.ValueOf(t).Elem(), reflect.ValueOf(old).Elem())
}

// compose is a copy of httptrace.compose, extended to embedded structs.
func compose(tv, ov reflect.Value) {
	structType := tv.Type()
	for i := range structType.NumField() {
		tf := tv.Field(i)
		hookType := tf.Type()
		if hookType.Kind() == reflect.Struct {
			compose(tf, ov.Field(i))
			continue
		}
		if hookType.Kind() != reflect.Func {
			continue
		}
		of := ov.Field(i)
		if of.IsNil() {
			continue
		}
		if tf.IsNil() {
			tf.Set(of)
			continue
		}

		// Make a copy of tf for tf to call. (Otherwise it
		// creates a recursive call cycle and stack overflows)
		tfCopy := reflect.ValueOf(tf.Interface())

		// We need to call both tf and of in some order.
		newFunc := reflect.MakeFunc(hookType, func(args []reflect.Value) []reflect.Value {
			of.Call(args)
			return tfCopy.Call(args)
		})
		tf.Set(newFunc)
	}
}
