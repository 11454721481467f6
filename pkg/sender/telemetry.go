package sender

import (
	otelMetric "go.opentelemetry.io/otel/metric"
	otelTrace "go.opentelemetry.io/otel/trace"

	"github.com/keboola/go-request-sender/pkg/sender/trace"
	"github.com/keboola/go-request-sender/pkg/sender/trace/otel"
)

// WithTrace returns a clone of the Config with the trace factory added to the existing one, if any.
func (c Config[R]) WithTrace(factory trace.Factory) Config[R] {
	c.Trace = trace.Combine(c.Trace, factory)
	return c
}

// WithTelemetry returns a clone of the Config with OpenTelemetry tracing and metrics, see the otel package.
func (c Config[R]) WithTelemetry(tracerProvider otelTrace.TracerProvider, meterProvider otelMetric.MeterProvider, opts ...otel.Option) Config[R] {
	return c.WithTrace(otel.NewTrace(tracerProvider, meterProvider, opts...))
}
