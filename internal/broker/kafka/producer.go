package kafka

import (
	"context"
	"encoding/json"

	"github.com/BearBump/ParcelDesk/internal/broker/messages"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Producer struct {
	w     messageWriter
	topic string
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
		topic: topic,
	}
}

func newProducerWithWriter(w messageWriter, topic string) *Producer {
	return &Producer{w: w, topic: topic}
}

func (p *Producer) Publish(ctx context.Context, topic string, key, value []byte) error {
	if err := p.w.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
	}); err != nil {
		return errors.Wrap(err, "kafka publish")
	}
	return nil
}

// PublishParcelChanged keys by tracking number so every change of one parcel lands
// in the same partition, in order.
func (p *Producer) PublishParcelChanged(ctx context.Context, msg messages.ParcelChanged) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "marshal parcel changed")
	}
	return p.Publish(ctx, p.topic, []byte(msg.TrackingNumber), b)
}

func (p *Producer) Close() error {
	if c, ok := p.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
