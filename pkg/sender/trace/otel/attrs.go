package otel

import (
	"context"
	"errors"
	"net/url"
	"reflect"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/keboola/go-request-sender/pkg/request"
)

const maskedAttrValue = "****"

type attributes struct {
	config config
	// call attributes for span and metrics
	call []attribute.KeyValue
	// callExtra attributes for span only
	callExtra []attribute.KeyValue
	// resolved attributes for span only
	resolved []attribute.KeyValue
}

func newAttributes(cfg config, call request.Call) *attributes {
	out := &attributes{config: cfg}
	out.call = []attribute.KeyValue{
		attribute.String("call.method", strings.ToUpper(call.Method)),
		attribute.String("call.url.base", call.BaseURL),
	}
	var dataType string
	if v := reflect.TypeOf(call.Data); v != nil {
		dataType = v.String()
	}
	out.callExtra = append(out.callExtra,
		attribute.String("call.data.type", dataType),
		attribute.Bool("call.options.avoid_blocking_request", call.Options.AvoidBlockingRequest()),
		attribute.Bool("call.options.return_raw_response", call.Options.ReturnRawResponse()),
	)
	out.callExtra = append(out.callExtra, cfg.attributes...)
	return out
}

func (v *attributes) SetResolved(resolved request.Resolved) {
	v.resolved = []attribute.KeyValue{attribute.String("call.url.resolved", v.redactURL(resolved.URL))}
	if u, err := url.Parse(resolved.URL); err == nil && u.Host != "" {
		v.resolved = append(v.resolved, attribute.String("call.url.host", u.Host))
	}
}

func (v *attributes) redactURL(in string) string {
	u, err := url.Parse(in)
	if err != nil || u.RawQuery == "" || len(v.config.redactedQueryParams) == 0 {
		return in
	}
	var parts []string
	for _, part := range strings.Split(u.RawQuery, "&") {
		key, _, found := strings.Cut(part, "=")
		if _, redacted := v.config.redactedQueryParams[strings.ToLower(key)]; found && redacted {
			part = key + "=" + maskedAttrValue
		}
		parts = append(parts, part)
	}
	u.RawQuery = strings.Join(parts, "&")
	return u.String()
}

func errorAttributes(err error) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool("call.error.has", err != nil),
		attribute.Bool("call.error.cancelled", errors.Is(err, context.Canceled)),
		attribute.Bool("call.error.deadline_exceeded", errors.Is(err, context.DeadlineExceeded)),
	}
}

func resultType(result any) string {
	if v := reflect.TypeOf(result); v != nil {
		return v.String()
	}
	return ""
}
