// Package sender provides the Sender, the core of the request orchestration.
//
// One call to the Sender.Send method goes through these stages:
//   - the URL and the payload are resolved, see request.Resolve,
//   - the call options are merged over the default options,
//   - if a blocking request is set, and the avoidBlockingRequest option is not set, the call waits until it settles,
//   - the pre-request hook may modify the request,
//   - the request is sent by the injected transport,
//   - the response payload is extracted and validated,
//   - the payload is returned, or merged into the raw response, if the returnRawResponse option is set.
//
// Any error is passed to the reject handler, its result is the result of the call.
//
// The blocking request is a best-effort gate: calls check it before sending,
// see Sender.SetBlockingRequest and Sender.SetBlockingRequestIfNotSet.
//
// RunGroup and WaitGroup are helpers for concurrent requests.
package sender

import (
	"context"
	"sync"

	"github.com/keboola/go-request-sender/pkg/request"
	"github.com/keboola/go-request-sender/pkg/sender/trace"
)

// Sender processes calls by the configured collaborators, R is the raw response type of the transport.
// It is safe for concurrent use.
type Sender[R any] struct {
	config Config[R]
	latch  *latch

	lock           *sync.RWMutex // for defaultOptions
	defaultOptions request.Options
}

// New creates a new Sender. It panics if a required collaborator is missing.
func New[R any](cfg Config[R]) *Sender[R] {
	if err := cfg.validate(); err != nil {
		panic(err)
	}
	cfg = cfg.withDefaults()
	return &Sender[R]{
		config:         cfg,
		latch:          &latch{},
		lock:           &sync.RWMutex{},
		defaultOptions: cfg.DefaultOptions,
	}
}

// Send processes one call and returns the validated response payload,
// or the raw response with merged payload, if the returnRawResponse option is set.
func (s *Sender[R]) Send(ctx context.Context, method, baseURL string, data any, options request.Options) (result any, err error) {
	call := request.Call{Method: method, BaseURL: baseURL, Data: data, Options: options}

	// Init trace
	var t *trace.CallTrace
	if s.config.Trace != nil {
		ctx, t = s.config.Trace(ctx, call)
	}
	if t != nil && t.CallProcessed != nil {
		defer func() {
			t.CallProcessed(result, err)
		}()
	}

	result, err = s.process(ctx, call, t)
	if err != nil {
		result, err = s.config.OnReject(ctx, err, call, s)
	}
	return result, err
}

// SendAsync starts the call in a new goroutine.
func (s *Sender[R]) SendAsync(ctx context.Context, method, baseURL string, data any, options request.Options) *Pending {
	return Go(func() (any, error) {
		return s.Send(ctx, method, baseURL, data, options)
	})
}

// SetBlockingRequest sets the blocking request, nil clears it.
//
// Calls without the avoidBlockingRequest option wait until the blocking request settles.
// The blocking request is cleared when it settles, unless it has been replaced in the meantime.
// The returned value settles with the same result as p, after the blocking request has been cleared.
func (s *Sender[R]) SetBlockingRequest(p *Pending) *Pending {
	return s.latch.set(p)
}

// SetBlockingRequestIfNotSet calls the factory and sets its result as the blocking request, if no blocking request is set.
// The current blocking request is returned.
//
// The factory is called synchronously. It can call SetBlockingRequest and BlockingRequest, but not SetBlockingRequestIfNotSet.
// Requests sent by the factory should set the avoidBlockingRequest option, otherwise they may wait for a previous blocking request.
func (s *Sender[R]) SetBlockingRequestIfNotSet(factory func() *Pending) *Pending {
	return s.latch.setIfAbsent(factory)
}

// BlockingRequest returns the current blocking request, or nil.
func (s *Sender[R]) BlockingRequest() *Pending {
	return s.latch.get()
}

// Wait blocks until the current blocking request, if any, settles and returns its value.
// The error of the blocking request is never returned, only the context error.
func (s *Sender[R]) Wait(ctx context.Context) (any, error) {
	return s.latch.wait(ctx)
}

// DefaultOptions returns the current default options.
func (s *Sender[R]) DefaultOptions() request.Options {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.defaultOptions
}

// SetDefaultOptions replaces the default options, calls already in progress are not affected.
func (s *Sender[R]) SetDefaultOptions(options request.Options) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.defaultOptions = options
}

// Extra returns the Config.Extra value.
func (s *Sender[R]) Extra() any {
	return s.config.Extra
}

func (s *Sender[R]) process(ctx context.Context, call request.Call, t *trace.CallTrace) (any, error) {
	// Resolve URL and request argument
	resolved, err := s.config.DataAndURLValidator(request.ResolveArgs{
		URLPrefix:   s.config.URLPrefix,
		Method:      call.Method,
		BaseURL:     call.BaseURL,
		Data:        call.Data,
		Options:     call.Options,
		EncodeQuery: s.config.EncodeQuery,
		Validator:   s.config.Validator,
		BuildQuery:  s.config.BuildQuery,
	})
	if t != nil && t.Resolved != nil {
		t.Resolved(resolved, err)
	}
	if err != nil {
		return nil, err
	}

	// Merge options
	finalOptions := s.config.MergeOptionsWithDefaultOptions(call.Options, s.DefaultOptions())

	// Wait for the blocking request
	if !finalOptions.AvoidBlockingRequest() && s.latch.get() != nil {
		if t != nil && t.BlockingWaitStart != nil {
			t.BlockingWaitStart()
		}
		_, err := s.latch.wait(ctx)
		if t != nil && t.BlockingWaitDone != nil {
			t.BlockingWaitDone(err)
		}
		if err != nil {
			return nil, err
		}
	}

	info := request.Info{
		Method:     call.Method,
		URL:        resolved.URL,
		RequestArg: resolved.RequestArg,
		Options:    finalOptions,
	}

	// Pre-request hook
	if s.config.PreRequestHook != nil {
		info, err = s.config.PreRequestHook(ctx, info)
		if t != nil && t.PreRequestHookDone != nil {
			t.PreRequestHookDone(info, err)
		}
		if err != nil {
			return nil, err
		}
	}

	// Send
	req := request.ValidatedRequest{
		Method: info.Method,
		URL:    info.URL,
		Data:   info.RequestArg,
		Config: info.Options.RequestConfig(),
	}
	if t != nil && t.SendStart != nil {
		t.SendStart(req)
	}
	response, err := s.config.SendValidatedRequest(ctx, req)
	if t != nil && t.SendDone != nil {
		t.SendDone(response, err)
	}
	if err != nil {
		return nil, err
	}

	if s.config.OnResponse != nil {
		s.config.OnResponse(ctx, response)
	}

	// Extract and validate response data
	data := s.config.GetDataFromResponse(response)
	if s.config.Validator != nil {
		data, err = s.config.Validator(request.ValidateArgs{
			Data:      data,
			Direction: request.DirectionResponse,
			Schema:    info.Options.ResponseSchema(),
			Options:   info.Options.ValidationOptions(),
		})
	}
	if t != nil && t.ResponseValidated != nil {
		t.ResponseValidated(data, err)
	}
	if err != nil {
		return nil, err
	}

	if info.Options.ReturnRawResponse() {
		return s.config.MergeValidatedDataIntoResponse(response, data), nil
	}
	return data, nil
}
