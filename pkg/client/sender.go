package client

import (
	"github.com/keboola/go-request-sender/pkg/sender"
)

// NewSender creates a sender.Sender which sends requests by the Client.
//
// The transport collaborators of the config are set, if they are not set yet:
// SendValidatedRequest by the Client.SendValidatedRequest and GetDataFromResponse by the GetData.
// A custom BuildQuery of the config is also set to the Client, see Client.WithBuildQuery.
func NewSender(c Client, cfg sender.Config[*Response]) *sender.Sender[*Response] {
	return sender.New(SenderConfig(c, cfg))
}

// SenderConfig fills the transport collaborators of the config, see NewSender.
func SenderConfig(c Client, cfg sender.Config[*Response]) sender.Config[*Response] {
	if cfg.SendValidatedRequest == nil {
		if cfg.BuildQuery != nil {
			c = c.WithBuildQuery(cfg.BuildQuery)
		}
		cfg.SendValidatedRequest = c.SendValidatedRequest
	}
	if cfg.GetDataFromResponse == nil {
		cfg.GetDataFromResponse = GetData
	}
	return cfg
}
