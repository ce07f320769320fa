// Package sink forwards domain events to external systems.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"phraseguard/internal/events"
)

// Producer is the subset of *kgo.Client the sink needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Envelope is the wire format written to Kafka.
type Envelope struct {
	Name        events.Name     `json:"name"`
	AggregateID string          `json:"aggregate_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload"`
}

// Kafka publishes events keyed by aggregate id so per-aggregate ordering
// survives partitioning.
type Kafka struct {
	producer Producer
	topic    string
}

func NewKafka(producer Producer, topic string) *Kafka {
	return &Kafka{producer: producer, topic: topic}
}

// Encode renders e as an Envelope.
func Encode(e events.Event) ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", e.EventName(), err)
	}
	return json.Marshal(Envelope{
		Name:        e.EventName(),
		AggregateID: e.AggregateID(),
		OccurredAt:  e.OccurredAt(),
		Payload:     payload,
	})
}

// Handle implements events.Handler.
func (k *Kafka) Handle(ctx context.Context, e events.Event) error {
	value, err := Encode(e)
	if err != nil {
		return err
	}
	rec := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(e.AggregateID()),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event", Value: []byte(e.EventName())},
		},
	}
	if err := k.producer.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce %s: %w", e.EventName(), err)
	}
	return nil
}
