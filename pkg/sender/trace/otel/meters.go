package otel

import otelMetric "go.opentelemetry.io/otel/metric"

const meterPrefix = "keboola.go.sender."

type meters struct {
	inFlight         otelMetric.Int64UpDownCounter
	duration         otelMetric.Float64Histogram
	blockingDuration otelMetric.Float64Histogram
}

func newMeters(meter otelMetric.Meter) *meters {
	return &meters{
		inFlight:         upDownCounter(meter, meterPrefix+"call.in_flight", "Sender: in flight calls."),
		duration:         histogram(meter, meterPrefix+"call.duration", "Sender: calls duration.", "ms"),
		blockingDuration: histogram(meter, meterPrefix+"blocking.wait.duration", "Sender: duration of waiting for the blocking request.", "ms"),
	}
}

func upDownCounter(meter otelMetric.Meter, name, desc string) otelMetric.Int64UpDownCounter {
	return mustInstrument(meter.Int64UpDownCounter(name, otelMetric.WithDescription(desc)))
}

func histogram(meter otelMetric.Meter, name, desc string, unit string) otelMetric.Float64Histogram {
	return mustInstrument(meter.Float64Histogram(name, otelMetric.WithDescription(desc), otelMetric.WithUnit(unit)))
}

func mustInstrument[T any](instrument T, err error) T {
	if err != nil {
		panic(err)
	}
	return instrument
}
