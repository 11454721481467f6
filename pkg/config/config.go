// Package config loads settings of the request sender from a file and environment variables.
//
// Supported file formats are YAML, JSON and TOML, see viper.SupportedExts.
// Each key can be overridden by an environment variable with the "REQUEST_SENDER_" prefix,
// nested keys are separated by "_", for example REQUEST_SENDER_CLIENT_BASEURL.
//
// Example file:
//
//	urlPrefix: v2/storage/
//	defaultOptions:
//	  requestConfig:
//	    headers:
//	      X-StorageApi-Token: my-token
//	client:
//	  baseURL: https://connection.keboola.com
//	  timeout: 30s
//	  retry:
//	    count: 3
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/keboola/go-request-sender/pkg/client"
	"github.com/keboola/go-request-sender/pkg/merge"
	"github.com/keboola/go-request-sender/pkg/request"
	"github.com/keboola/go-request-sender/pkg/sender"
)

// EnvPrefix of environment variables.
const EnvPrefix = "REQUEST_SENDER"

// Settings of the sender and its HTTP client.
type Settings struct {
	// URLPrefix is prepended to each resolved URL, see sender.Config.
	URLPrefix string `mapstructure:"urlPrefix"`
	// DefaultOptions are merged under the options of each call, see request.Options.
	DefaultOptions map[string]any `mapstructure:"defaultOptions"`
	Client         ClientSettings `mapstructure:"client"`
}

type ClientSettings struct {
	BaseURL   string            `mapstructure:"baseURL"`
	UserAgent string            `mapstructure:"userAgent"`
	Headers   map[string]string `mapstructure:"headers"`
	// Timeout of one request including retries, it is set as the "requestConfig.timeout" default option.
	Timeout               time.Duration `mapstructure:"timeout"`
	HTTP2                 bool          `mapstructure:"http2"`
	MaxConnectionsPerHost int           `mapstructure:"maxConnectionsPerHost"`
	Retry                 RetrySettings `mapstructure:"retry"`
}

type RetrySettings struct {
	Count               int           `mapstructure:"count"`
	TotalRequestTimeout time.Duration `mapstructure:"totalRequestTimeout"`
	WaitTimeStart       time.Duration `mapstructure:"waitTimeStart"`
	WaitTimeMax         time.Duration `mapstructure:"waitTimeMax"`
}

// optionKeys maps lowercase keys, produced by viper, to the option names.
var optionKeys = map[string]string{ //nolint:gochecknoglobals
	strings.ToLower(request.OptionRequestSchema):        request.OptionRequestSchema,
	strings.ToLower(request.OptionResponseSchema):       request.OptionResponseSchema,
	strings.ToLower(request.OptionValidationOptions):    request.OptionValidationOptions,
	strings.ToLower(request.OptionRequestConfig):        request.OptionRequestConfig,
	strings.ToLower(request.OptionAvoidBlockingRequest): request.OptionAvoidBlockingRequest,
	strings.ToLower(request.OptionReturnRawResponse):    request.OptionReturnRawResponse,
}

// Load settings from the file and environment variables.
// If the path is empty, only defaults and environment variables are used.
func Load(path string, opts ...viper.DecoderConfigOption) (Settings, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf(`cannot read config "%s": %w`, path, err)
		}
	}
	return Unmarshal(v, opts...)
}

// New creates a viper instance with defaults and environment variables binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	retry := client.DefaultRetry()
	v.SetDefault("urlPrefix", "")
	v.SetDefault("client.baseURL", "")
	v.SetDefault("client.userAgent", client.DefaultUserAgent)
	v.SetDefault("client.timeout", time.Duration(0))
	v.SetDefault("client.http2", false)
	v.SetDefault("client.maxConnectionsPerHost", client.MaxConnectionsPerHost)
	v.SetDefault("client.retry.count", retry.Count)
	v.SetDefault("client.retry.totalRequestTimeout", retry.TotalRequestTimeout)
	v.SetDefault("client.retry.waitTimeStart", retry.WaitTimeStart)
	v.SetDefault("client.retry.waitTimeMax", retry.WaitTimeMax)
	return v
}

// Unmarshal settings from the viper instance.
func Unmarshal(v *viper.Viper, opts ...viper.DecoderConfigOption) (Settings, error) {
	out := Settings{}
	if err := v.Unmarshal(&out, opts...); err != nil {
		return out, fmt.Errorf("invalid config: %w", err)
	}
	if err := out.Validate(); err != nil {
		return out, err
	}
	return out, nil
}

// Validate settings.
func (s Settings) Validate() error {
	for key := range s.DefaultOptions {
		if _, found := optionKeys[strings.ToLower(key)]; !found {
			return fmt.Errorf(`invalid config: unexpected default option "%s"`, key)
		}
	}
	if s.Client.Retry.Count < 0 {
		return fmt.Errorf("invalid config: retry count must be positive or zero")
	}
	return nil
}

// Options converts DefaultOptions to the request.Options.
// The client timeout is set as the "requestConfig.timeout" option, if it is not set.
func (s Settings) Options() request.Options {
	record := make(merge.Record, len(s.DefaultOptions))
	for key, value := range s.DefaultOptions {
		if name, found := optionKeys[strings.ToLower(key)]; found {
			key = name
		}
		record[key] = value
	}

	opts := request.OptionsFromRecord(record)
	if s.Client.Timeout > 0 {
		current, _ := merge.AsRecord(opts.RequestConfig())
		if _, found := current["timeout"]; !found {
			opts = opts.AndRequestConfig("timeout", s.Client.Timeout)
		}
	}
	return opts
}

// RetryConfig returns the client retry configuration.
func (s Settings) RetryConfig() client.RetryConfig {
	retry := client.DefaultRetry()
	retry.Count = s.Client.Retry.Count
	if v := s.Client.Retry.TotalRequestTimeout; v > 0 {
		retry.TotalRequestTimeout = v
	}
	if v := s.Client.Retry.WaitTimeStart; v > 0 {
		retry.WaitTimeStart = v
	}
	if v := s.Client.Retry.WaitTimeMax; v > 0 {
		retry.WaitTimeMax = v
	}
	return retry
}

// NewClient creates the HTTP client from the settings.
func (s Settings) NewClient() client.Client {
	c := client.New()
	if s.Client.HTTP2 {
		c = c.WithTransport(client.HTTP2Transport())
	} else {
		c = c.WithTransport(client.NewTransport(s.Client.MaxConnectionsPerHost))
	}
	if s.Client.BaseURL != "" {
		c = c.WithBaseURL(s.Client.BaseURL)
	}
	if s.Client.UserAgent != "" {
		c = c.WithUserAgent(s.Client.UserAgent)
	}
	return c.WithHeaders(s.Client.Headers).WithRetry(s.RetryConfig())
}

// SenderConfig fills the URL prefix and default options of the config, if they are not set.
func (s Settings) SenderConfig(cfg sender.Config[*client.Response]) sender.Config[*client.Response] {
	if cfg.URLPrefix == "" {
		cfg.URLPrefix = s.URLPrefix
	}
	if cfg.DefaultOptions.IsEmpty() {
		cfg.DefaultOptions = s.Options()
	}
	return cfg
}

// NewSender creates the sender.Sender from the settings, see SenderConfig and NewClient.
func (s Settings) NewSender(cfg sender.Config[*client.Response]) *sender.Sender[*client.Response] {
	return client.NewSender(s.NewClient(), s.SenderConfig(cfg))
}
