package trace

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"os"
	"strings"
	"time"

	"github.com/keboola/go-request-sender/pkg/client/decode"
	"github.com/keboola/go-request-sender/pkg/request"
)

// DumpMaxLength is the maximum length of a dumped request or response, see DumpTracer.
const DumpMaxLength = 2000

// dumper holds state of one ValidatedRequest, the request may be sent more than once.
type dumper struct {
	wr       io.Writer
	maxLen   int // 0 means no limit
	req      request.ValidatedRequest
	method   string
	uri      string
	status   int
	dump     []byte
	lastErr  error
	start    time.Time
	headerAt time.Time
}

// DumpTracer writes each HTTP request and response to the writer, for debugging.
//
// Dumps longer than DumpMaxLength are cut, set the HTTP_DUMP_TRACE_FULL env to "true" to disable it.
// Tokens are not masked, never use it in production.
func DumpTracer(wr io.Writer) Factory {
	maxLen := DumpMaxLength
	if os.Getenv("HTTP_DUMP_TRACE_FULL") == "true" { //nolint:forbidigo
		maxLen = 0
	}
	return func(ctx context.Context, req request.ValidatedRequest) (context.Context, *ClientTrace) {
		d := &dumper{wr: wr, maxLen: maxLen, req: req}
		return ctx, &ClientTrace{
			HTTPRequestStart: d.onStart,
			HTTPRequestDone:  d.onDone,
			HTTPRequestRetry: d.onRetry,
			RequestProcessed: d.onProcessed,
		}
	}
}

func (d *dumper) onStart(r *http.Request) {
	d.start = time.Now()
	d.method, d.uri = r.Method, r.URL.RequestURI()
	d.dump, _ = httputil.DumpRequestOut(r, true)
}

func (d *dumper) onDone(r *http.Response, err error) {
	// Response is nil on a network error
	if r != nil {
		d.status = r.StatusCode
		d.headerAt = time.Now()
	}
	d.lastErr = err

	d.println()
	d.println(">>>>>> HTTP DUMP")
	d.printBody(string(d.dump))
	d.println("------")
	if err == nil {
		d.printResponse(r)
	} else {
		d.println("ERROR: ", err)
	}
	d.println("<<<<<< HTTP DUMP END")
}

func (d *dumper) printResponse(r *http.Response) {
	if headers, err := httputil.DumpResponse(r, false); err == nil {
		d.println(strings.TrimSpace(string(headers)))
	} else {
		d.println("cannot dump response headers: ", err)
	}
	if r.Body == nil {
		return
	}

	// The body is read through a tee, the raw bytes are put back for the client
	var raw bytes.Buffer
	var decoded strings.Builder
	body, err := decode.Decode(io.NopCloser(io.TeeReader(r.Body, &raw)), r.Header.Get("Content-Encoding"))
	if err != nil {
		d.println("cannot read response body: ", err)
	}
	if _, err := io.Copy(&decoded, body); err != nil {
		d.println("cannot read response body: ", err)
	}
	r.Body = io.NopCloser(bytes.NewReader(raw.Bytes()))

	d.println("------")
	d.printBody(decoded.String())
}

func (d *dumper) onRetry(attempt int, delay time.Duration) {
	d.println()
	d.println(">>>>>> HTTP RETRY", "| ATTEMPT:", attempt, "| DELAY:", delay, "| ", d.method, d.uri, d.status, "| ERROR:", d.lastErr)
}

func (d *dumper) onProcessed(_ any, err error) {
	if d.method == "" {
		// No HTTP request has been created, for example the URL is invalid
		d.method, d.uri = d.req.Method, d.req.URL
	}
	if d.lastErr == nil {
		d.lastErr = err
	}
	d.println()
	d.println(">>>>>> HTTP REQUEST PROCESSED", "| ", d.method, d.uri, d.status, "| ERROR:", d.lastErr, "| HEADERS AT:", d.headerAt.Sub(d.start), "| DONE AT:", time.Since(d.start))
}

func (d *dumper) printBody(body string) {
	body = strings.TrimSpace(body)
	if d.maxLen > 0 && len(body) > d.maxLen {
		d.println(body[:d.maxLen])
		d.println("... (set env HTTP_DUMP_TRACE_FULL=true to see full output)")
		return
	}
	d.println(body)
}

func (d *dumper) println(a ...any) {
	_, _ = fmt.Fprintln(d.wr, a...)
}
