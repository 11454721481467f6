package trace_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/keboola/go-utils/pkg/wildcards"
	"github.com/stretchr/testify/assert"

	"github.com/keboola/go-request-sender/pkg/client"
	"github.com/keboola/go-request-sender/pkg/client/trace"
	"github.com/keboola/go-request-sender/pkg/request"
)

func TestDumpTracer(t *testing.T) {
	t.Parallel()

	// Mocked response
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", `https://example.com`, httpmock.ResponderFromMultipleResponses([]*http.Response{
		{StatusCode: http.StatusLocked},
		{StatusCode: http.StatusTooManyRequests},
		{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("OK"))},
	}))

	// Logs for trace testing
	var logs strings.Builder

	// Create client
	ctx := context.Background()
	c := client.New().
		WithTransport(transport).
		WithRetry(client.TestingRetry()).
		AndTrace(trace.DumpTracer(&logs))

	// Expected trace
	expected := `
>>>>>> HTTP DUMP
GET / HTTP/1.1
Host: example.com
User-Agent: keboola-go-request-sender
Accept-Encoding: gzip, br
------
HTTP/0.0 423 Locked
Content-Length: 0
<<<<<< HTTP DUMP END

>>>>>> HTTP RETRY | ATTEMPT: 1 | DELAY: 1ms |  GET / 423 | ERROR: <nil>

>>>>>> HTTP DUMP
GET / HTTP/1.1
Host: example.com
User-Agent: keboola-go-request-sender
Accept-Encoding: gzip, br
------
HTTP/0.0 429 Too Many Requests
Content-Length: 0
<<<<<< HTTP DUMP END

>>>>>> HTTP RETRY | ATTEMPT: 2 | DELAY: 1ms |  GET / 429 | ERROR: <nil>

>>>>>> HTTP DUMP
GET / HTTP/1.1
Host: example.com
User-Agent: keboola-go-request-sender
Accept-Encoding: gzip, br
------
HTTP/0.0 200 OK
Content-Length: 0
------
OK
<<<<<< HTTP DUMP END

>>>>>> HTTP REQUEST PROCESSED |  GET / 200 | ERROR: <nil> | HEADERS AT: %s | DONE AT: %s
`

	// Test
	res, err := c.SendValidatedRequest(ctx, request.ValidatedRequest{Method: "GET", URL: "https://example.com"})
	assert.NoError(t, err)
	assert.Equal(t, "OK", res.Data)
	wildcards.Assert(t, strings.TrimLeft(expected, "\n"), logs.String())
}

func TestDumpTracer_LongBody(t *testing.T) {
	t.Parallel()

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", `https://example.com`, httpmock.NewStringResponder(200, strings.Repeat("x", trace.DumpMaxLength+100)))

	var logs strings.Builder
	c := client.New().WithTransport(transport).WithRetry(client.TestingRetry()).WithTrace(trace.DumpTracer(&logs))

	res, err := c.SendValidatedRequest(context.Background(), request.ValidatedRequest{Method: "GET", URL: "https://example.com"})
	assert.NoError(t, err)
	assert.Len(t, res.Data, trace.DumpMaxLength+100)
	assert.Contains(t, logs.String(), strings.Repeat("x", trace.DumpMaxLength)+"\n... (set env HTTP_DUMP_TRACE_FULL=true to see full output)\n")
	assert.NotContains(t, logs.String(), strings.Repeat("x", trace.DumpMaxLength+1))
}
