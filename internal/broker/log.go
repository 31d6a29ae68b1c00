package broker

import (
	"context"

	"github.com/rs/zerolog"
)

// LogPublisher writes notifications to the log. It is the fallback when no
// Kafka brokers are configured.
type LogPublisher struct {
	logger zerolog.Logger
}

func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With().Str("component", "broker").Logger()}
}

func (p *LogPublisher) Publish(ctx context.Context, msg Message) error {
	p.logger.Debug().
		Str("type", msg.Type).
		Str("key", msg.Key).
		Interface("payload", msg.Payload).
		Msg("notification published")
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
