package client

import (
	"context"
	"os"

	"github.com/jarcoal/httpmock"

	"github.com/keboola/go-request-sender/pkg/client/trace"
	"github.com/keboola/go-request-sender/pkg/request"
	"github.com/keboola/go-request-sender/pkg/sender"
)

var testTransport = DefaultTransport()

// NewTestClient creates the Client for tests.
//
// If the TEST_HTTP_CLIENT_VERBOSE environment variable is set to "true",
// then all HTTP requests and responses are dumped to stdout.
//
// Output may contain unmasked tokens, do not use it in production.
func NewTestClient() Client {
	return New().
		WithTransport(testTransport).
		WithRetry(TestingRetry()).
		WithTrace(func(ctx context.Context, req request.ValidatedRequest) (context.Context, *trace.ClientTrace) {
			if os.Getenv("TEST_HTTP_CLIENT_VERBOSE") == "true" { //nolint:forbidigo
				return trace.DumpTracer(os.Stdout)(ctx, req)
			}
			return ctx, nil
		})
}

// NewMockedClient creates the Client with mocked HTTP transport.
func NewMockedClient() (Client, *httpmock.MockTransport) {
	mockTransport := httpmock.NewMockTransport()
	return NewTestClient().WithTransport(mockTransport), mockTransport
}

// NewMockedSender creates the sender.Sender with the mocked Client.
func NewMockedSender(baseURL string, cfg sender.Config[*Response]) (*sender.Sender[*Response], *httpmock.MockTransport) {
	c, transport := NewMockedClient()
	if baseURL != "" {
		c = c.WithBaseURL(baseURL)
	}
	return NewSender(c, cfg), transport
}
