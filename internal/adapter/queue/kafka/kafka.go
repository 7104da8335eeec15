package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/langowen/posratio/internal/entities"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *Publisher) Publish(ctx context.Context, msg entities.RefreshMessage) error {
	const op = "queue.kafka.Publish"

	value, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, op)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.ID),
		Value: value,
		Time:  time.Now(),
	})
	if err != nil {
		return errors.Wrap(err, op)
	}

	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Consumer reads refresh messages as part of a consumer group. Offsets are
// committed only on acknowledgement.
type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			Topic:   topic,
			GroupID: groupID,
		}),
	}
}

func (c *Consumer) Consume(ctx context.Context) (entities.RefreshMessage, func(context.Context) error, error) {
	const op = "queue.kafka.Consume"

	m, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return entities.RefreshMessage{}, nil, errors.Wrap(err, op)
	}

	ack := func(ctx context.Context) error {
		if err := c.reader.CommitMessages(ctx, m); err != nil {
			return errors.Wrap(err, "queue.kafka.Ack")
		}
		return nil
	}

	var msg entities.RefreshMessage
	if err := json.Unmarshal(m.Value, &msg); err != nil {
		slog.Warn("Dropping malformed refresh message", "op", op, "offset", m.Offset, "error", err)
		_ = ack(ctx)
		return entities.RefreshMessage{}, nil, errors.Wrap(entities.ErrInvalidPayload, op)
	}

	return msg, ack, nil
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
