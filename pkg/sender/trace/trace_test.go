package trace_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keboola/go-request-sender/pkg/merge"
	"github.com/keboola/go-request-sender/pkg/request"
	"github.com/keboola/go-request-sender/pkg/sender"
	. "github.com/keboola/go-request-sender/pkg/sender/trace"
)

func TestCallTrace_Compose(t *testing.T) {
	t.Parallel()
	var logs []string

	old := &CallTrace{
		SendStart:     func(req request.ValidatedRequest) { logs = append(logs, "old send") },
		CallProcessed: func(result any, err error) { logs = append(logs, "old processed") },
	}
	current := &CallTrace{
		SendStart: func(req request.ValidatedRequest) { logs = append(logs, "new send") },
		SendDone:  func(response any, err error) { logs = append(logs, "new sent") },
	}
	current.Compose(old)
	current.Compose(nil)

	current.SendStart(request.ValidatedRequest{})
	current.SendDone(nil, nil)
	current.CallProcessed(nil, nil)
	assert.Nil(t, current.Resolved)
	assert.Equal(t, []string{"old send", "new send", "new sent", "old processed"}, logs)
}

func TestCombine(t *testing.T) {
	t.Parallel()
	assert.Nil(t, Combine())
	assert.Nil(t, Combine(nil, nil))

	var logs []string
	factory := func(name string) Factory {
		return func(ctx context.Context, call request.Call) (context.Context, *CallTrace) {
			logs = append(logs, name+" created")
			return ctx, &CallTrace{
				CallProcessed: func(result any, err error) { logs = append(logs, name+" processed") },
			}
		}
	}
	empty := func(ctx context.Context, call request.Call) (context.Context, *CallTrace) {
		return ctx, nil
	}

	combined := Combine(factory("a"), nil, empty, factory("b"), factory("c"))
	_, tc := combined(context.Background(), request.Call{})
	tc.CallProcessed(nil, nil)
	assert.Equal(t, []string{"a created", "b created", "c created", "a processed", "b processed", "c processed"}, logs)
}

func TestTrace_Sender(t *testing.T) {
	t.Parallel()

	// Logs for trace testing
	var logs strings.Builder
	s := sender.New(sender.Config[merge.Record]{
		SendValidatedRequest: func(ctx context.Context, req request.ValidatedRequest) (merge.Record, error) {
			if req.URL == "error" {
				return nil, fmt.Errorf("transport error")
			}
			return merge.Record{"data": req.Data}, nil
		},
		GetDataFromResponse: func(response merge.Record) any {
			return response["data"]
		},
		Trace: func(ctx context.Context, call request.Call) (context.Context, *CallTrace) {
			logs.WriteString(fmt.Sprintf("Call               %s %s\n", call.Method, call.BaseURL))
			return ctx, &CallTrace{
				Resolved: func(resolved request.Resolved, err error) {
					logs.WriteString(fmt.Sprintf("Resolved           %s err=%v\n", resolved.URL, err))
				},
				SendStart: func(req request.ValidatedRequest) {
					logs.WriteString(fmt.Sprintf("SendStart          %s %s\n", req.Method, req.URL))
				},
				SendDone: func(response any, err error) {
					logs.WriteString(fmt.Sprintf("SendDone           err=%v\n", err))
				},
				ResponseValidated: func(data any, err error) {
					logs.WriteString(fmt.Sprintf("ResponseValidated  err=%v\n", err))
				},
				CallProcessed: func(result any, err error) {
					s := spew.NewDefaultConfig()
					s.DisablePointerAddresses = true
					s.DisableCapacities = true
					logs.WriteString(fmt.Sprintf("CallProcessed      result=%s err=%v\n", strings.TrimSpace(s.Sdump(result)), err))
				},
			}
		},
	})

	result, err := s.Send(context.Background(), "GET", "items/:id", map[string]any{"id": 1}, request.Options{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, result)
	_, err = s.Send(context.Background(), "POST", "error", nil, request.Options{})
	assert.Error(t, err)

	expected := `
Call               GET items/:id
Resolved           items/1 err=<nil>
SendStart          GET items/1
SendDone           err=<nil>
ResponseValidated  err=<nil>
CallProcessed      result=(map[string]interface {}) {
} err=<nil>
Call               POST error
Resolved           error err=<nil>
SendStart          POST error
SendDone           err=transport error
CallProcessed      result=(interface {}) <nil> err=transport error
`
	assert.Equal(t, strings.TrimLeft(expected, "\n"), logs.String())
}
