package kafka

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	r messageReader
	// reopen replaces r after a failed handler so the failed message is fetched again.
	reopen func(failed kafka.Message) messageReader
	commit bool
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	cfg := kafka.ReaderConfig{
		Brokers:           brokers,
		GroupID:           groupID,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
		// новая группа читает топик с начала: уведомления о старых посылках тоже нужны
		StartOffset: kafka.FirstOffset,
		MaxWait:     time.Second,
	}
	if groupID != "" {
		cfg.GroupTopics = []string{topic}
	} else {
		cfg.Topic = topic
	}
	return &Consumer{
		r: kafka.NewReader(cfg),
		reopen: func(failed kafka.Message) messageReader {
			r := kafka.NewReader(cfg)
			// группа продолжит с последнего коммита, без группы ставим offset руками
			if groupID == "" {
				_ = r.SetOffset(failed.Offset)
			}
			return r
		},
		// без GroupID kafka-go не умеет коммитить
		commit: groupID != "",
	}
}

func newConsumerWithReader(r messageReader) *Consumer {
	return &Consumer{r: r, commit: true}
}

func (c *Consumer) Close() error {
	return c.r.Close()
}

// Consume feeds messages to handler one by one. A message is committed only after
// handler succeeded. On a handler error the reader is reopened and Consume returns,
// so the next Consume starts again from the failed message.
func (c *Consumer) Consume(ctx context.Context, handler func(key, value []byte) error) error {
	for {
		msg, err := c.r.FetchMessage(ctx)
		if err != nil {
			return errors.Wrap(err, "fetch message")
		}
		if err := handler(msg.Key, msg.Value); err != nil {
			if c.reopen != nil {
				_ = c.r.Close()
				c.r = c.reopen(msg)
			}
			return errors.Wrapf(err, "handle message at offset %d", msg.Offset)
		}
		if !c.commit {
			continue
		}
		if err := c.r.CommitMessages(ctx, msg); err != nil {
			return errors.Wrap(err, "commit message")
		}
	}
}
