// Package otel provides OpenTelemetry tracing and metrics for calls processed by the sender.Sender.
//
// Spans:
//   - "keboola.go.sender.call" wraps one logical call, including the reject handler.
//   - "keboola.go.sender.blocking.wait" tracks waiting for the blocking request.
//   - "keboola.go.sender.transport" tracks the transport call.
//
// Metrics names start with "keboola.go.sender." (meterPrefix const), for full list see the meters struct.
package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelMetric "go.opentelemetry.io/otel/metric"
	metricNoop "go.opentelemetry.io/otel/metric/noop"
	otelTrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/keboola/go-request-sender/pkg/request"
	"github.com/keboola/go-request-sender/pkg/sender/trace"
)

const (
	traceAppName          = "github.com/keboola/go-request-sender"
	attrResourceName      = attribute.Key("resource.name")
	spanPrefix            = "keboola.go.sender."
	callSpanName          = spanPrefix + "call"
	blockingWaitSpanName  = spanPrefix + "blocking.wait"
	transportSpanName     = spanPrefix + "transport"
	attrResultType        = attribute.Key("call.result.type")
	attrTransportMethod   = attribute.Key("transport.method")
	attrTransportURL      = attribute.Key("transport.url")
	attrTransportRespType = attribute.Key("transport.response.type")
	// Extra attributes for DataDog.
	attrSpanKind            = attribute.Key("span.kind")
	attrSpanKindValueClient = "client"
	attrSpanType            = attribute.Key("span.type")
	attrSpanTypeValueHTTP   = "http"
)

// NewTrace creates a trace.Factory which reports spans and metrics of each call.
// Nil providers are replaced by noop implementations.
func NewTrace(tracerProvider otelTrace.TracerProvider, meterProvider otelMetric.MeterProvider, opts ...Option) trace.Factory {
	cfg := newConfig(opts)
	if tracerProvider == nil {
		tracerProvider = noop.NewTracerProvider()
	}
	if meterProvider == nil {
		meterProvider = metricNoop.NewMeterProvider()
	}
	tracer := tracerProvider.Tracer(traceAppName)
	meters := newMeters(meterProvider.Meter(traceAppName))

	return func(rootCtx context.Context, call request.Call) (context.Context, *trace.CallTrace) {
		t := &trace.CallTrace{}
		attrs := newAttributes(cfg, call)

		// Root span and metrics, the span wraps the whole call.
		startTime := time.Now()
		meters.inFlight.Add(rootCtx, 1, otelMetric.WithAttributes(attrs.call...))

		var rootSpan otelTrace.Span
		rootCtx, rootSpan = tracer.Start(
			rootCtx,
			callSpanName,
			otelTrace.WithSpanKind(otelTrace.SpanKindClient),
			otelTrace.WithAttributes(
				attrResourceName.String(call.BaseURL),
				attrSpanKind.String(attrSpanKindValueClient),
				attrSpanType.String(attrSpanTypeValueHTTP),
			),
			otelTrace.WithAttributes(attrs.call...),
			otelTrace.WithAttributes(attrs.callExtra...),
		)

		t.Resolved = func(resolved request.Resolved, err error) {
			if err == nil {
				attrs.SetResolved(resolved)
				rootSpan.SetAttributes(attrs.resolved...)
			}
		}

		// Blocking request
		{
			var waitStart time.Time
			var waitSpan otelTrace.Span
			t.BlockingWaitStart = func() {
				waitStart = time.Now()
				_, waitSpan = tracer.Start(
					rootCtx,
					blockingWaitSpanName,
					otelTrace.WithSpanKind(otelTrace.SpanKindInternal),
					otelTrace.WithAttributes(attrs.call...),
				)
			}
			t.BlockingWaitDone = func(err error) {
				elapsedTime := float64(time.Since(waitStart)) / float64(time.Millisecond)
				meters.blockingDuration.Record(rootCtx, elapsedTime, otelMetric.WithAttributes(attrs.call...))
				if waitSpan != nil {
					if err != nil {
						waitSpan.RecordError(err)
						waitSpan.SetStatus(codes.Error, err.Error())
					}
					waitSpan.End()
					waitSpan = nil
				}
			}
		}

		// Transport
		{
			var transportSpan otelTrace.Span
			t.SendStart = func(req request.ValidatedRequest) {
				_, transportSpan = tracer.Start(
					rootCtx,
					transportSpanName,
					otelTrace.WithSpanKind(otelTrace.SpanKindClient),
					otelTrace.WithAttributes(
						attrSpanKind.String(attrSpanKindValueClient),
						attrSpanType.String(attrSpanTypeValueHTTP),
						attrTransportMethod.String(req.Method),
						attrTransportURL.String(attrs.redactURL(req.URL)),
					),
				)
			}
			t.SendDone = func(response any, err error) {
				if transportSpan == nil {
					return
				}
				transportSpan.SetAttributes(attrTransportRespType.String(resultType(response)))
				if err != nil {
					transportSpan.RecordError(err)
					transportSpan.SetStatus(codes.Error, err.Error())
				}
				transportSpan.End()
				transportSpan = nil
			}
		}

		t.CallProcessed = func(result any, err error) {
			elapsedTime := float64(time.Since(startTime)) / float64(time.Millisecond)

			// Metrics
			meterAttrs := append(append([]attribute.KeyValue{}, attrs.call...), errorAttributes(err)...)
			meters.inFlight.Add(rootCtx, -1, otelMetric.WithAttributes(attrs.call...)) // same attributes/dimensions as above (+1)!
			meters.duration.Record(rootCtx, elapsedTime, otelMetric.WithAttributes(meterAttrs...))

			// Tracing
			rootSpan.SetAttributes(attrResultType.String(resultType(result)))
			if err == nil {
				rootSpan.End()
			} else {
				rootSpan.RecordError(err)
				rootSpan.SetStatus(codes.Error, err.Error())
				rootSpan.End(otelTrace.WithStackTrace(true))
			}
		}

		return rootCtx, t
	}
}
