package trace_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/keboola/go-utils/pkg/wildcards"
	"github.com/stretchr/testify/assert"

	"github.com/keboola/go-request-sender/pkg/merge"
	"github.com/keboola/go-request-sender/pkg/request"
	"github.com/keboola/go-request-sender/pkg/sender"
	"github.com/keboola/go-request-sender/pkg/sender/trace"
)

func TestLogTracer(t *testing.T) {
	t.Parallel()

	// Logs for trace testing
	var logs strings.Builder
	ctx := context.Background()
	waiting := make(chan struct{})
	s := sender.New(sender.Config[merge.Record]{
		URLPrefix: "https://example.com/",
		SendValidatedRequest: func(ctx context.Context, req request.ValidatedRequest) (merge.Record, error) {
			if strings.HasSuffix(req.URL, "/error") {
				return nil, errors.New("transport error")
			}
			return merge.Record{"data": "OK"}, nil
		},
		GetDataFromResponse: func(response merge.Record) any {
			return response["data"]
		},
		Trace: trace.Combine(trace.LogTracer(&logs), func(ctx context.Context, call request.Call) (context.Context, *trace.CallTrace) {
			return ctx, &trace.CallTrace{BlockingWaitStart: func() { close(waiting) }}
		}),
	})

	// Blocking request
	p, settle := sender.NewPending()
	s.SetBlockingRequest(p)
	call := s.SendAsync(ctx, "GET", "items/:id", map[string]any{"id": 1}, request.Options{})
	<-waiting
	settle(nil, nil)
	_, err := call.Wait(ctx)
	assert.NoError(t, err)

	// Error
	_, err = s.Send(ctx, "POST", "error", nil, request.Options{})
	assert.Error(t, err)

	// Expected trace
	expected := `
SENDER_CALL[0001] CALL  GET "items/:id"
SENDER_CALL[0001] WAIT  GET "https://example.com/items/1"
SENDER_CALL[0001] READY GET "https://example.com/items/1" | %s
SENDER_CALL[0001] SEND  GET "https://example.com/items/1"
SENDER_CALL[0001] SENT  GET "https://example.com/items/1" | %s
SENDER_CALL[0001] DONE  GET "https://example.com/items/1" | %s
SENDER_CALL[0002] CALL  POST "error"
SENDER_CALL[0002] SEND  POST "https://example.com/error"
SENDER_CALL[0002] SENT  POST "https://example.com/error" | %s | error=transport error
SENDER_CALL[0002] DONE  POST "https://example.com/error" | %s | error=transport error
`
	wildcards.Assert(t, strings.TrimLeft(expected, "\n"), logs.String())
}
