package bus

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"
)

// Handler processes one message payload.
type Handler func(ctx context.Context, payload []byte) error

// Bus is an in-process publish/subscribe channel backed by watermill's GoChannel.
// Publish does not wait for subscribers, so it is safe to call from the hub loop.
type Bus struct {
	pubsub *gochannel.GoChannel
	log    *zerolog.Logger
}

// New creates an empty bus.
func New(logger *zerolog.Logger) *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, NewLoggerAdapter(logger)),
		log:    logger,
	}
}

// Publish sends payload to every subscriber of topic.
func (b *Bus) Publish(topic string, payload []byte) error {
	return b.pubsub.Publish(topic, message.NewMessage(watermill.NewUUID(), payload))
}

// Subscribe runs handler for every message on topic until ctx is done or the
// bus is closed. It returns once the subscription is active.
func (b *Bus) Subscribe(ctx context.Context, topic string, handler Handler) error {
	messages, err := b.pubsub.Subscribe(ctx, topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			if err := handler(msg.Context(), msg.Payload); err != nil {
				b.log.Error().Err(err).Str("topic", topic).Str("msg_id", msg.UUID).Msg("handle bus message")
			}
			// GoChannel redelivers nacked messages, so failures are acked after logging.
			msg.Ack()
		}
		b.log.Debug().Str("topic", topic).Msg("bus subscription ended")
	}()
	return nil
}

// Close stops all subscriptions.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
