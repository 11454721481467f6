// Package trace defines hooks for the stages of a call processed by the sender.Sender.
// Hooks are registered by the sender.Config Trace field, multiple factories can be joined by Combine.
package trace

import (
	"context"
	"reflect"

	"github.com/keboola/go-request-sender/pkg/request"
)

// Factory creates CallTrace hooks for a call.
// The returned context is used for the rest of the call.
type Factory func(ctx context.Context, call request.Call) (context.Context, *CallTrace)

// CallTrace is a set of hooks to run at various stages of a call.
// Any hook may be nil.
type CallTrace struct {
	// Resolved is called when the URL and the request argument are resolved, or the resolving failed.
	Resolved func(resolved request.Resolved, err error)
	// BlockingWaitStart is called before waiting for the blocking request.
	BlockingWaitStart func()
	// BlockingWaitDone is called when the blocking request is settled, or the context is done.
	BlockingWaitDone func(err error)
	// PreRequestHookDone is called when the pre-request hook is completed.
	PreRequestHookDone func(info request.Info, err error)
	// SendStart is called before the request is sent by the transport.
	SendStart func(req request.ValidatedRequest)
	// SendDone is called when the transport returns.
	SendDone func(response any, err error)
	// ResponseValidated is called when the response data are extracted and validated.
	ResponseValidated func(data any, err error)
	// CallProcessed is called at the end, with the final result, after the reject handler, if any.
	CallProcessed func(result any, err error)
}

// Compose modifies t such that it respects the previously-registered hooks in old.
// The old hook is called first.
func (t *CallTrace) Compose(old *CallTrace) {
	if old == nil {
		return
	}
	tv := reflect.ValueOf(t).Elem()
	ov := reflect.ValueOf(old).Elem()
	structType := tv.Type()
	for i := range structType.NumField() {
		tf := tv.Field(i)
		hookType := tf.Type()
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
		tv.Field(i).Set(newFunc)
	}
}

// Combine joins multiple factories into one, nil factories are skipped.
// Hooks are called in the order of the factories.
func Combine(factories ...Factory) Factory {
	var filtered []Factory
	for _, f := range factories {
		if f != nil {
			filtered = append(filtered, f)
		}
	}
	switch len(filtered) {
	case 0:
		return nil
	case 1:
		return filtered[0]
	}
	return func(ctx context.Context, call request.Call) (context.Context, *CallTrace) {
		var out *CallTrace
		for _, f := range filtered {
			var t *CallTrace
			ctx, t = f(ctx, call)
			if t == nil {
				continue
			}
			if out == nil {
				out = &CallTrace{}
				*out = *t
				continue
			}
			next := *t
			next.Compose(out)
			out = &next
		}
		return ctx, out
	}
}
