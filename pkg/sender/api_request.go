package sender

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/keboola/go-request-sender/pkg/request"
)

// Sendable is an APIRequest or ParallelRequests.
type Sendable interface {
	SendOrErr(ctx context.Context) error
}

// APIRequest is a call bound to a Sender, with the result mapped to the generic type T.
// It is immutable, all With* methods return a modified clone.
type APIRequest[T any] interface {
	// WithBefore method registers callback to be executed before the request.
	// If an error is returned, the request is not sent.
	WithBefore(func(ctx context.Context) error) APIRequest[T]
	// WithOnComplete method registers callback to be executed when the request is completed.
	WithOnComplete(func(ctx context.Context, result T, err error) error) APIRequest[T]
	// WithOnSuccess method registers callback to be executed when the request is completed without an error.
	WithOnSuccess(func(ctx context.Context, result T) error) APIRequest[T]
	// WithOnError method registers callback to be executed when the request failed.
	WithOnError(func(ctx context.Context, err error) error) APIRequest[T]
	// Send sends the request by the Sender.
	Send(ctx context.Context) (result T, err error)
	SendOrErr(ctx context.Context) error
}

// ParallelRequests are sent concurrently, see Parallel.
type ParallelRequests []Sendable

// Parallel wraps parallel requests to one Sendable interface.
func Parallel(requests ...Sendable) ParallelRequests {
	return requests
}

func (v ParallelRequests) SendOrErr(ctx context.Context) error {
	wg := NewWaitGroup(ctx)
	for _, r := range v {
		wg.Send(r)
	}
	return wg.Wait()
}

// NewAPIRequest creates an APIRequest sent by the Sender.
//
// The result of the call is converted to T: a value of the type T is used directly,
// other values, for example decoded JSON objects, are decoded by mapstructure using "json" tags.
func NewAPIRequest[T, R any](s *Sender[R], method, baseURL string, data any, options request.Options) APIRequest[T] {
	if s == nil {
		panic(fmt.Errorf("sender cannot be nil"))
	}
	send := func(ctx context.Context) (any, error) {
		return s.Send(ctx, method, baseURL, data, options)
	}
	return &apiRequest[T]{send: send}
}

// NewRequest creates an APIRequest sent by the Sender, the result is not converted.
func (s *Sender[R]) NewRequest(method, baseURL string, data any, options request.Options) APIRequest[any] {
	return NewAPIRequest[any](s, method, baseURL, data, options)
}

// apiRequest implements generic APIRequest interface.
type apiRequest[T any] struct {
	send   func(ctx context.Context) (any, error)
	before []func(ctx context.Context) error
	after  []func(ctx context.Context, result T, err error) error
}

func (r apiRequest[T]) WithBefore(fn func(ctx context.Context) error) APIRequest[T] {
	r.before = append(r.before[:len(r.before):len(r.before)], fn)
	return r
}

func (r apiRequest[T]) WithOnComplete(fn func(ctx context.Context, result T, err error) error) APIRequest[T] {
	r.after = append(r.after[:len(r.after):len(r.after)], fn)
	return r
}

func (r apiRequest[T]) WithOnSuccess(fn func(ctx context.Context, result T) error) APIRequest[T] {
	return r.WithOnComplete(func(ctx context.Context, result T, err error) error {
		if err == nil {
			err = fn(ctx, result)
		}
		return err
	})
}

func (r apiRequest[T]) WithOnError(fn func(ctx context.Context, err error) error) APIRequest[T] {
	return r.WithOnComplete(func(ctx context.Context, result T, err error) error {
		if err != nil {
			err = fn(ctx, err)
		}
		return err
	})
}

func (r apiRequest[T]) Send(ctx context.Context) (result T, err error) {
	// Stop if context has been cancelled
	if err := ctx.Err(); err != nil {
		return result, err
	}

	// Invoke "before" listeners
	for _, fn := range r.before {
		if err := fn(ctx); err != nil {
			return result, err
		}
	}

	// Stop if context has been cancelled
	if err := ctx.Err(); err != nil {
		return result, err
	}

	// Send and convert the result
	var raw any
	raw, err = r.send(ctx)
	if err == nil {
		result, err = convertResult[T](raw)
	}

	// Invoke "after" listeners
	for _, fn := range r.after {
		// Stop if context has been cancelled
		if err := ctx.Err(); err != nil {
			return result, err
		}
		err = fn(ctx, result, err)
	}

	return result, err
}

func (r apiRequest[T]) SendOrErr(ctx context.Context) error {
	_, err := r.Send(ctx)
	return err
}

func convertResult[T any](raw any) (result T, err error) {
	if raw == nil {
		return result, nil
	}
	if v, ok := raw.(T); ok {
		return v, nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &result,
	})
	if err != nil {
		return result, err
	}
	if err := decoder.Decode(raw); err != nil {
		return result, fmt.Errorf("cannot convert result to %T: %w", result, err)
	}
	return result, nil
}
