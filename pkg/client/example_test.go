package client_test

import (
	"context"
	"fmt"

	"github.com/jarcoal/httpmock"

	"github.com/keboola/go-request-sender/pkg/client"
	"github.com/keboola/go-request-sender/pkg/request"
	"github.com/keboola/go-request-sender/pkg/sender"
)

func ExampleNewSender() {
	// Mocked transport
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "https://connection.keboola.com/v2/storage/buckets/in.c-main?include=columns", httpmock.NewJsonResponderOrPanic(200, map[string]any{"id": "in.c-main"}))

	c := client.New().WithBaseURL("https://connection.keboola.com").WithTransport(transport)
	s := client.NewSender(c, sender.Config[*client.Response]{
		URLPrefix:      "v2/storage/",
		DefaultOptions: request.NewOptions().AndRequestConfig("headers", map[string]any{"X-StorageApi-Token": "my-token"}),
	})

	// The "id" value is used in the path, the rest of the payload is encoded to the query
	result, err := s.Send(context.Background(), "GET", "buckets/:id", map[string]any{"id": "in.c-main", "include": "columns"}, request.Options{})
	if err != nil {
		panic(err)
	}
	fmt.Println(result)

	// Output:
	// map[id:in.c-main]
}
