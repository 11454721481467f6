package client

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// RequestConfig is the transport configuration of one request, the "requestConfig" option.
//
// Example options:
//
//	request.NewOptions().
//		AndRequestConfig("headers", map[string]any{"X-StorageApi-Token": token}).
//		AndRequestConfig("timeout", "10s")
type RequestConfig struct {
	// Headers are set over the common headers of the Client.
	Headers map[string]string `mapstructure:"headers"`
	// ContentType of the request body, by default it is derived from the payload type.
	ContentType string `mapstructure:"contentType"`
	// Timeout of the request including retries, it can be a time.Duration or a string, for example "10s".
	Timeout time.Duration `mapstructure:"timeout"`
}

// DecodeRequestConfig converts the "requestConfig" option value to the RequestConfig.
// Nil value returns an empty config.
func DecodeRequestConfig(value any) (RequestConfig, error) {
	out := RequestConfig{}
	switch v := value.(type) {
	case nil:
		return out, nil
	case RequestConfig:
		return v, nil
	case *RequestConfig:
		if v != nil {
			return *v, nil
		}
		return out, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return out, err
	}
	if err := decoder.Decode(value); err != nil {
		return out, fmt.Errorf("invalid request config: %w", err)
	}
	return out, nil
}
