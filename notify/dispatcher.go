package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
)

// KafkaDispatcher publishes envelopes to the dispatch topic, where the
// channel senders (email, push) pick them up. Keyed by envelope id.
type KafkaDispatcher struct {
	prod  sarama.SyncProducer
	topic string
}

func NewKafkaDispatcher(prod sarama.SyncProducer, topic string) *KafkaDispatcher {
	return &KafkaDispatcher{prod: prod, topic: topic}
}

func (d *KafkaDispatcher) Dispatch(ctx context.Context, env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("dispatch %s: %w", env.ID, err)
	}
	msg := &sarama.ProducerMessage{
		Topic: d.topic,
		Key:   sarama.StringEncoder(env.ID),
		Value: sarama.ByteEncoder(payload),
	}
	if _, _, err := d.prod.SendMessage(msg); err != nil {
		return fmt.Errorf("dispatch %s: %w", env.ID, err)
	}
	return nil
}
