package otel

import (
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

type config struct {
	redactedQueryParams map[string]struct{}
	attributes          []attribute.KeyValue
}

type Option func(*config)

// WithRedactedQueryParam masks values of the query parameters in the URL attributes.
func WithRedactedQueryParam(params ...string) Option {
	return func(c *config) {
		for _, p := range params {
			c.redactedQueryParams[strings.ToLower(p)] = struct{}{}
		}
	}
}

// WithAttributes adds static attributes to each span.
func WithAttributes(attrs ...attribute.KeyValue) Option {
	return func(c *config) {
		c.attributes = append(c.attributes, attrs...)
	}
}

func newConfig(opts []Option) config {
	cfg := config{
		redactedQueryParams: map[string]struct{}{
			"token":        {},
			"access_token": {},
			"api_key":      {},
		},
	}
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}
