package sender_test

import (
	"context"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"

	"github.com/keboola/go-request-sender/pkg/client"
	"github.com/keboola/go-request-sender/pkg/request"
	"github.com/keboola/go-request-sender/pkg/sender"
)

func TestRunGroup(t *testing.T) {
	t.Parallel()
	s, transport := client.NewMockedSender("https://example.com", sender.Config[*client.Response]{})
	transport.RegisterResponder("GET", `=~^https://example.com/`, httpmock.NewStringResponder(200, "OK"))

	// Create run group
	g := sender.NewRunGroup(context.Background())

	// Add requests
	g.Add(s.NewRequest("GET", "foo1", nil, request.Options{}))
	g.Add(s.NewRequest("GET", "foo2", nil, request.Options{}))
	g.Add(s.
		NewRequest("GET", "foo3", nil, request.Options{}).
		WithOnSuccess(func(ctx context.Context, result any) error {
			g.Add(s.NewRequest("GET", "foo5", nil, request.Options{}))
			return nil
		}).
		WithOnError(func(ctx context.Context, err error) error {
			g.Add(s.NewRequest("GET", "err", nil, request.Options{}))
			return err
		}),
	)
	g.Add(s.
		NewRequest("GET", "foo4", nil, request.Options{}).
		WithOnSuccess(func(ctx context.Context, result any) error {
			g.Add(s.NewRequest("GET", "foo6", nil, request.Options{}))
			return nil
		}),
	)

	// No requests have been sent yet
	assert.Equal(t, 0, transport.GetTotalCallCount())

	// Run and wait
	assert.NoError(t, g.RunAndWait())

	// All requests have been sent
	assert.Equal(t, map[string]int{
		"GET =~^https://example.com/":  6,
		"GET https://example.com/foo1": 1,
		"GET https://example.com/foo2": 1,
		"GET https://example.com/foo3": 1,
		"GET https://example.com/foo4": 1,
		"GET https://example.com/foo5": 1,
		"GET https://example.com/foo6": 1,
	}, transport.GetCallCountInfo())
}

func TestRunGroup_HandleError(t *testing.T) {
	t.Parallel()
	s, transport := client.NewMockedSender("https://example.com", sender.Config[*client.Response]{})
	transport.RegisterResponder("GET", `=~^https://example.com/`, httpmock.NewStringResponder(401, "Forbidden"))

	// Create run group
	g := sender.NewRunGroup(context.Background())

	// Add requests
	requestsCount := 100
	assert.Greater(t, requestsCount, sender.RunGroupConcurrencyLimit)
	for i := 1; i <= requestsCount; i++ {
		g.Add(s.NewRequest("GET", "foo", nil, request.Options{}))
	}

	// No requests have been sent yet
	assert.Equal(t, 0, transport.GetTotalCallCount())

	// Run and wait, first error returned
	err := g.RunAndWait()
	assert.Error(t, err)
	assert.Equal(t, `request GET "https://example.com/foo" failed: 401 Unauthorized`, err.Error())

	// NOT all requests have been sent
	// Sending stops when first error occurs
	assert.Less(t, transport.GetTotalCallCount(), 100)
}
