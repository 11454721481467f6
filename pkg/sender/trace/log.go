package trace

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/keboola/go-request-sender/pkg/request"
)

type logTrace struct {
	CallTrace
	wr   io.Writer
	lock *sync.Mutex
}

// LogTracer writes one line for each stage of a call to the writer.
func LogTracer(wr io.Writer) Factory {
	var idGenerator uint64
	lock := &sync.Mutex{}
	return func(ctx context.Context, call request.Call) (context.Context, *CallTrace) {
		callID := atomic.AddUint64(&idGenerator, 1)

		var url string
		var startTime, waitStartTime, sendStartTime time.Time

		t := &logTrace{wr: wr, lock: lock}
		startTime = time.Now()
		t.log(callID, fmt.Sprintf(`CALL  %s "%s"`, call.Method, call.BaseURL))
		t.Resolved = func(resolved request.Resolved, err error) {
			url = resolved.URL
			if err != nil {
				t.log(callID, fmt.Sprintf(`RESOLVE %s "%s" | error=%s`, call.Method, call.BaseURL, err))
			}
		}
		t.BlockingWaitStart = func() {
			waitStartTime = time.Now()
			t.log(callID, fmt.Sprintf(`WAIT  %s "%s"`, call.Method, url))
		}
		t.BlockingWaitDone = func(err error) {
			t.log(callID, fmt.Sprintf(`READY %s "%s" | %s%s`, call.Method, url, time.Since(waitStartTime), errorSuffix(err)))
		}
		t.SendStart = func(req request.ValidatedRequest) {
			sendStartTime = time.Now()
			t.log(callID, fmt.Sprintf(`SEND  %s "%s"`, req.Method, req.URL))
		}
		t.SendDone = func(_ any, err error) {
			t.log(callID, fmt.Sprintf(`SENT  %s "%s" | %s%s`, call.Method, url, time.Since(sendStartTime), errorSuffix(err)))
		}
		t.CallProcessed = func(_ any, err error) {
			t.log(callID, fmt.Sprintf(`DONE  %s "%s" | %s%s`, call.Method, url, time.Since(startTime), errorSuffix(err)))
		}
		return ctx, &t.CallTrace
	}
}

func (t *logTrace) log(callID uint64, a ...any) {
	t.lock.Lock()
	defer t.lock.Unlock()
	a = append([]any{fmt.Sprintf("SENDER_CALL[%04d]", callID)}, a...)
	_, _ = fmt.Fprintln(t.wr, a...)
}

func errorSuffix(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf(" | error=%s", err)
}
