package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	MessageCreated      = "message.created"
	MessageRead         = "message.read"
	MessageDeleted      = "message.deleted"
	ConversationDeleted = "conversation.deleted"
)

// Publisher emits messaging events to Kafka. Publishing is best effort:
// a broker failure is logged and never fails the originating request.
type Publisher struct {
	writer *kafka.Writer
	log    *zap.SugaredLogger
}

func NewPublisher(brokers []string, topic string, log *zap.SugaredLogger) *Publisher {
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	})
	return &Publisher{writer: w, log: log}
}

type envelope struct {
	Type string      `json:"type"`
	At   time.Time   `json:"at"`
	Data interface{} `json:"data"`
}

func (p *Publisher) Publish(ctx context.Context, eventType, partitionKey string, data interface{}) {
	b, err := json.Marshal(envelope{Type: eventType, At: time.Now().UTC(), Data: data})
	if err != nil {
		return
	}
	msg := kafka.Message{
		Key:   []byte(partitionKey),
		Value: b,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Warnw("kafka publish failed", "event", eventType, "err", err)
	}
}

func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
