package messaging

import (
	"go.uber.org/zap"

	"qreport/config"
)

// Subscriber listens on the inbound topic and feeds raw messages to the
// ingestor. Messages addressed to other devices are filtered out before
// payload decode.
type Subscriber struct {
	client   *Client
	topic    string
	ingestor *Ingestor
}

// NewSubscriber wires an inbound subscription for this field device.
func NewSubscriber(client *Client, cfg *config.Config, handler MessageHandler, log *zap.SugaredLogger) *Subscriber {
	return &Subscriber{
		client:   client,
		topic:    cfg.Messaging.InboundTopic,
		ingestor: NewIngestor(handler, FieldFilter(cfg.Org, cfg.DeviceID), log),
	}
}

// Start subscribes to the inbound topic and begins processing messages.
func (s *Subscriber) Start() error {
	return s.client.Subscribe(s.topic, s.ingestor.HandleRaw)
}
