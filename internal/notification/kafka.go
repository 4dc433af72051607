package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// DefaultKafkaTopic receives account events when no topic is configured.
const DefaultKafkaTopic = "txengine.account_events"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaEvent struct {
	Kind        string    `json:"kind"`
	Destination string    `json:"destination"`
	Body        string    `json:"body"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// KafkaNotifier publishes notifications as JSON events keyed by destination,
// so events for one client stay ordered within a partition.
type KafkaNotifier struct {
	writer messageWriter
	now    func() time.Time
}

// NewKafkaNotifier builds a notifier writing to topic on the given brokers.
func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	if topic == "" {
		topic = DefaultKafkaTopic
	}
	return newKafkaNotifier(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	})
}

func newKafkaNotifier(w messageWriter) *KafkaNotifier {
	return &KafkaNotifier{writer: w, now: time.Now}
}

// Send publishes one event.
func (n *KafkaNotifier) Send(ctx context.Context, message Message) error {
	data, err := json.Marshal(kafkaEvent{
		Kind:        message.Kind,
		Destination: message.Destination,
		Body:        message.Body,
		OccurredAt:  n.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode %s event: %w", message.Kind, err)
	}
	if err := n.writer.WriteMessages(ctx, kafka.Message{Key: []byte(message.Destination), Value: data}); err != nil {
		return fmt.Errorf("publish %s event: %w", message.Kind, err)
	}
	return nil
}

// Close flushes pending writes.
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
