// Package client provides the HTTP transport collaborator of the sender.Sender.
//
// Client is based on the standard net/http package and contains retry and tracing support.
// Client.SendValidatedRequest method sends a request resolved by the sender.Sender and returns the Response.
// Use NewSender function to create a sender.Sender with the Client as the transport.
//
// The request is configured by the "requestConfig" option, see RequestConfig.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"strings"
	"time"

	"github.com/keboola/go-request-sender/pkg/client/counter"
	"github.com/keboola/go-request-sender/pkg/client/decode"
	"github.com/keboola/go-request-sender/pkg/client/trace"
	"github.com/keboola/go-request-sender/pkg/request"
)

// DefaultUserAgent is the User-Agent header of the Client.
const DefaultUserAgent = "keboola-go-request-sender"

// Client is a default and configurable HTTP transport of the sender.Sender by Go native http.Client.
// It supports retry and tracing.
type Client struct {
	transport    http.RoundTripper
	baseURL      *url.URL
	header       http.Header
	retry        RetryConfig
	traceFactory trace.Factory
	buildQuery   request.BuildQueryFunc
}

// New creates new HTTP Client.
func New() Client {
	c := Client{transport: DefaultTransport(), header: make(http.Header), retry: DefaultRetry(), buildQuery: request.DefaultBuildQuery}
	c.header.Set("User-Agent", DefaultUserAgent)
	c.header.Set("Accept-Encoding", decode.AcceptEncoding)
	return c
}

// WithBaseURL returns a clone of the Client with base url set.
func (c Client) WithBaseURL(baseURLStr string) Client {
	baseURL, err := url.Parse(baseURLStr)
	if err != nil {
		panic(fmt.Errorf(`base url "%s" is not valid: %w`, baseURLStr, err))
	}
	c.baseURL = baseURL
	return c
}

// WithUserAgent returns a clone of the Client with user agent set.
func (c Client) WithUserAgent(v string) Client {
	c.header = c.header.Clone()
	c.header.Set("User-Agent", v)
	return c
}

// WithHeader returns a clone of the Client with common header set.
func (c Client) WithHeader(key, value string) Client {
	c.header = c.header.Clone()
	c.header.Set(key, value)
	return c
}

// WithHeaders returns a clone of the Client with common headers set.
func (c Client) WithHeaders(headers map[string]string) Client {
	c.header = c.header.Clone()
	for k, v := range headers {
		c.header.Set(k, v)
	}
	return c
}

// WithTransport returns a clone of the Client with a HTTP transport set.
func (c Client) WithTransport(transport http.RoundTripper) Client {
	if transport == nil {
		panic(fmt.Errorf("transport cannot be nil"))
	}
	c.transport = transport
	return c
}

// WithRetry returns a clone of the Client with retry config set.
func (c Client) WithRetry(retry RetryConfig) Client {
	c.retry = retry
	return c
}

// WithBuildQuery returns a clone of the Client with the query predicate set.
// No body is sent if the predicate returns true, the payload has been encoded to the query.
// It must match sender.Config.BuildQuery, NewSender sets it automatically.
func (c Client) WithBuildQuery(fn request.BuildQueryFunc) Client {
	if fn == nil {
		fn = request.DefaultBuildQuery
	}
	c.buildQuery = fn
	return c
}

// WithTrace returns a clone of the Client with trace hooks set, the previous hooks are replaced.
func (c Client) WithTrace(fn trace.Factory) Client {
	c.traceFactory = fn
	return c
}

// AndTrace returns a clone of the Client with trace hooks added.
// The previous hooks are called first.
func (c Client) AndTrace(fn trace.Factory) Client {
	oldFactory := c.traceFactory
	if oldFactory == nil {
		c.traceFactory = fn
		return c
	}
	c.traceFactory = func(ctx context.Context, req request.ValidatedRequest) (context.Context, *trace.ClientTrace) {
		ctx, oldTrace := oldFactory(ctx, req)
		ctx, newTrace := fn(ctx, req)
		if newTrace == nil {
			return ctx, oldTrace
		}
		newTrace.Compose(oldTrace)
		return ctx, newTrace
	}
	return c
}

// SendValidatedRequest sends the request resolved by the sender.Sender, it is the sender.TransportFunc of the Client.
//
// The Response is returned also together with the *HTTPError, if the status code is 400 or more.
func (c Client) SendValidatedRequest(ctx context.Context, req request.ValidatedRequest) (res *Response, err error) {
	// Method cannot be called on an empty value
	if c.transport == nil {
		panic(fmt.Errorf("client value is not initialized"))
	}

	method := strings.ToUpper(req.Method)

	// Init trace
	var t *trace.ClientTrace
	if c.traceFactory != nil {
		ctx, t = c.traceFactory(ctx, req)
		if t != nil {
			ctx = httptrace.WithClientTrace(ctx, &t.ClientTrace)
		}
	}

	// Trace request processed
	if t != nil && t.RequestProcessed != nil {
		defer func() {
			t.RequestProcessed(res, err)
		}()
	}

	// Request config
	cfg, err := DecodeRequestConfig(req.Config)
	if err != nil {
		return nil, fmt.Errorf(`request %s "%s": %w`, method, req.URL, err)
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	// Convert to absolute url
	var reqURL *url.URL
	if c.baseURL == nil {
		reqURL, err = url.Parse(req.URL)
	} else {
		reqURL, err = c.baseURL.Parse(req.URL)
	}
	if err != nil {
		return nil, fmt.Errorf(`request %s "%s": invalid url: %w`, method, req.URL, err)
	}

	// Create request
	ctx = context.WithValue(ctx, retryAttemptCtxKey{}, 0)
	httpReq, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return nil, err
	}

	// Global headers
	for k, values := range c.header {
		for _, v := range values {
			httpReq.Header.Set(k, v)
		}
	}

	// Request headers
	for k, v := range cfg.Headers {
		httpReq.Header.Set(k, v)
	}

	// Body
	buildQuery := c.buildQuery
	if buildQuery == nil {
		buildQuery = request.DefaultBuildQuery
	}
	var body *requestBody
	if !buildQuery(method) {
		body, err = newRequestBody(req.Data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf(`request %s "%s": %w`, method, httpReq.URL.String(), err)
	}
	if body != nil {
		if body.contentType != "" && httpReq.Header.Get("Content-Type") == "" {
			httpReq.Header.Set("Content-Type", body.contentType)
		}
		// GetBody factory is used for requests when a redirect/retry requires reading the body more than once.
		httpReq.GetBody = func() (io.ReadCloser, error) {
			if rc, err := body.open(); err == nil {
				return rc, nil
			} else {
				return nil, fmt.Errorf(`request %s "%s": cannot prepare request body: %w`, httpReq.Method, httpReq.URL.String(), err)
			}
		}
		httpReq.Body, err = httpReq.GetBody()
		if err != nil {
			return nil, err
		}
	}

	// Setup native client
	nativeClient := http.Client{
		Timeout:   c.retry.TotalRequestTimeout,
		Transport: roundTripper{retry: c.retry, trace: t, wrapped: c.transport}, // wrapped transport for trace/retry
	}

	// Send request
	startedAt := time.Now()
	httpRes, err := nativeClient.Do(httpReq)
	if err != nil {
		return nil, handleSendError(startedAt, c.retry.TotalRequestTimeout, httpReq, err)
	}

	// Process body
	res, err = handleResponse(httpReq.Method, httpRes, t)
	if err != nil {
		return nil, fmt.Errorf(`cannot process request %s "%s": %w`, httpReq.Method, httpReq.URL.String(), err)
	}

	// Generic HTTP error
	if res.StatusCode > 399 {
		return res, &HTTPError{
			Method:     httpReq.Method,
			URL:        httpReq.URL.String(),
			StatusCode: res.StatusCode,
			Header:     res.Header,
			Body:       res.Data,
		}
	}

	return res, nil
}

func handleResponse(method string, r *http.Response, t *trace.ClientTrace) (*Response, error) {
	defer r.Body.Close()

	out := &Response{StatusCode: r.StatusCode, Header: r.Header, RawResponse: r}
	if r.StatusCode == http.StatusNoContent || method == http.MethodHead {
		if t != nil && t.ResponseBodyRead != nil {
			t.ResponseBodyRead(0, nil)
		}
		return out, nil
	}

	// Process content encoding
	body, err := decode.Decode(r.Body, r.Header.Get("Content-Encoding"))
	if err != nil {
		return nil, err
	}

	// Count decoded bytes
	counted := counter.NewReadCloser(body, func(bytes int64, err error) {
		if t != nil && t.ResponseBodyRead != nil {
			t.ResponseBodyRead(bytes, err)
		}
	})
	defer counted.Close()

	content, err := io.ReadAll(counted)
	if err != nil {
		return nil, fmt.Errorf(`cannot read response body: %w`, err)
	}

	// Process content type
	if isJSONContentType(r.Header.Get("Content-Type")) {
		if len(content) > 0 {
			if err := json.Unmarshal(content, &out.Data); err != nil {
				return nil, fmt.Errorf(`cannot decode JSON response: %w`, err)
			}
		}
	} else {
		out.Data = string(content)
	}

	return out, nil
}

func handleSendError(startedAt time.Time, clientTimeout time.Duration, req *http.Request, err error) error {
	// Timeout
	var netErr net.Error
	if deadline, ok := req.Context().Deadline(); ok && errors.Is(err, context.DeadlineExceeded) {
		err = urlError(req, fmt.Errorf("timeout after %s", deadline.Sub(startedAt)))
	} else if errors.Is(err, context.Canceled) {
		err = urlError(req, fmt.Errorf("canceled after %s", time.Since(startedAt)))
	} else if errors.As(err, &netErr) && netErr.Timeout() {
		if strings.Contains(err.Error(), "Client.Timeout exceeded") {
			err = urlError(req, fmt.Errorf("timeout after %s", clientTimeout))
		} else {
			err = urlError(req, fmt.Errorf("timeout after %s", time.Since(startedAt)))
		}
	}

	// Url error
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = fmt.Errorf(`request %s "%s" failed: %w`, strings.ToUpper(urlErr.Op), urlErr.URL, urlErr.Err)
	}

	return err
}

func urlError(req *http.Request, err error) *url.Error {
	return &url.Error{Op: req.Method, URL: req.URL.String(), Err: err}
}
