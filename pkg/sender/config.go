package sender

import (
	"context"
	"fmt"

	"github.com/keboola/go-request-sender/pkg/request"
	"github.com/keboola/go-request-sender/pkg/sender/trace"
)

// TransportFunc sends the resolved request and returns the raw response.
type TransportFunc[R any] func(ctx context.Context, req request.ValidatedRequest) (R, error)

// RejectHandler processes a failed call.
// The returned value and error become the result of the call.
type RejectHandler[R any] func(ctx context.Context, err error, call request.Call, s *Sender[R]) (any, error)

// Config of the Sender, R is the raw response type of the transport.
//
// SendValidatedRequest and GetDataFromResponse are required, all other fields are optional.
type Config[R any] struct {
	// URLPrefix is prepended to each resolved URL.
	URLPrefix string
	// DefaultOptions are merged under the options of each call.
	DefaultOptions request.Options
	// SendValidatedRequest is the transport.
	SendValidatedRequest TransportFunc[R]
	// GetDataFromResponse extracts the payload from the raw response.
	GetDataFromResponse func(response R) any
	// Validator validates the request payload, if a request schema is set, and each response payload.
	Validator request.ValidatorFunc
	// OnReject handles any error of a call, the error is returned unchanged by default.
	OnReject RejectHandler[R]
	// OnResponse is called with each raw response.
	OnResponse func(ctx context.Context, response R)
	// PreRequestHook may modify the resolved request before it is sent.
	PreRequestHook request.PreRequestHook
	// EncodeQuery encodes query values, request.EncodeQueryValue by default.
	EncodeQuery request.EncodeQueryFunc
	// BuildQuery decides whether the payload is sent in the query, request.DefaultBuildQuery by default.
	BuildQuery request.BuildQueryFunc
	// DataAndURLValidator resolves the URL and the request argument, request.Resolve by default.
	DataAndURLValidator request.ResolverFunc
	// MergeValidatedDataIntoResponse is used if the returnRawResponse option is set, see MergeDataIntoResponse.
	MergeValidatedDataIntoResponse func(response R, data any) R
	// MergeOptionsWithDefaultOptions merges per-call options with the default options, request.MergeOptions by default.
	MergeOptionsWithDefaultOptions func(current, defaults request.Options) request.Options
	// Extra is an arbitrary value available by the Sender.Extra method.
	Extra any
	// Trace creates hooks for each call.
	Trace trace.Factory
}

func (c Config[R]) validate() error {
	if c.SendValidatedRequest == nil {
		return fmt.Errorf("sender config: SendValidatedRequest is not set")
	}
	if c.GetDataFromResponse == nil {
		return fmt.Errorf("sender config: GetDataFromResponse is not set")
	}
	return nil
}

func (c Config[R]) withDefaults() Config[R] {
	if c.OnReject == nil {
		c.OnReject = DefaultOnReject[R]
	}
	if c.EncodeQuery == nil {
		c.EncodeQuery = request.EncodeQueryValue
	}
	if c.BuildQuery == nil {
		c.BuildQuery = request.DefaultBuildQuery
	}
	if c.DataAndURLValidator == nil {
		c.DataAndURLValidator = request.Resolve
	}
	if c.MergeValidatedDataIntoResponse == nil {
		c.MergeValidatedDataIntoResponse = MergeDataIntoResponse[R]
	}
	if c.MergeOptionsWithDefaultOptions == nil {
		c.MergeOptionsWithDefaultOptions = request.MergeOptions
	}
	return c
}

// DefaultOnReject returns the error unchanged.
func DefaultOnReject[R any](_ context.Context, err error, _ request.Call, _ *Sender[R]) (any, error) {
	return nil, err
}
