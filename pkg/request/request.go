// Package request provides the request definition part of the request sender.
//
// Options are immutable per-call or default options, see NewOptions function.
// Resolve function converts a call (method, base URL, payload, options) to the final URL and request argument:
// it validates the payload, replaces ":name" path placeholders and encodes the query string.
// EncodeQueryValue function encodes a single payload value to the query string.
//
// Requests are sent by the sender.Sender, which merges options, serializes blocking requests
// and calls the injected transport with a ValidatedRequest.
package request

import (
	"context"
)

// Call contains the original arguments of one sender call.
type Call struct {
	Method  string
	BaseURL string
	Data    any
	Options Options
}

// Info is a resolved in-flight call, it can be replaced by a PreRequestHook.
type Info struct {
	Method     string
	URL        string
	RequestArg any
	Options    Options
}

// ValidatedRequest is passed to the transport.
type ValidatedRequest struct {
	Method string
	URL    string
	Data   any
	// Config is the RequestConfig of the final options.
	Config any
}

// PreRequestHook can modify the request before it is sent.
// The returned Info replaces the whole call state, it is not validated again.
type PreRequestHook func(ctx context.Context, info Info) (Info, error)

// Direction of the validated payload.
type Direction string

const (
	DirectionRequest  = Direction("request")
	DirectionResponse = Direction("response")
)

// ValidateArgs are arguments of the ValidatorFunc.
type ValidateArgs struct {
	Data      any
	Direction Direction
	Schema    any
	Options   any
}

// ValidatorFunc validates request payload or response data.
// It returns the (possibly transformed) payload, or an error if the validation failed.
type ValidatorFunc func(args ValidateArgs) (any, error)

// EncodeQueryFunc encodes one payload value to the query string.
type EncodeQueryFunc func(value any) string

// BuildQueryFunc decides whether the remaining payload is encoded to the query string.
type BuildQueryFunc func(method string) bool
