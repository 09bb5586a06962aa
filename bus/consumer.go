// Package bus adapts the Kafka event bus: consumer-group subscriptions with
// commit-after-processing, and a sync producer for outbound messages.
package bus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"salesai-streams/domain"
	"salesai-streams/metrics"
)

// Handler processes one decoded event. Errors are logged and the message is
// still committed: redelivery cannot fix a handler failure, the next event
// for the same id repairs it.
type Handler func(ctx context.Context, ev domain.Event) error

// Consumer subscribes consumer groups to topics.
type Consumer struct {
	brokers []string
	cfg     *sarama.Config
}

func NewConsumer(brokers []string) *Consumer {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V3_6_0_0
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	cfg.Consumer.Return.Errors = true
	return &Consumer{brokers: brokers, cfg: cfg}
}

// Run consumes topic under group until ctx is cancelled. Session errors are
// logged and the group rejoins; a group that cannot be created at all is
// fatal to the caller.
func (c *Consumer) Run(ctx context.Context, group, topic string, handler Handler) error {
	cg, err := sarama.NewConsumerGroup(c.brokers, group, c.cfg)
	if err != nil {
		return fmt.Errorf("consumer group %s: %w", group, err)
	}
	defer cg.Close()

	go func() {
		for err := range cg.Errors() {
			log.WithError(err).WithFields(log.Fields{"group": group, "topic": topic}).Error("consumer group error")
		}
	}()

	h := &groupHandler{group: group, handler: handler}
	for {
		if err := cg.Consume(ctx, []string{topic}, h); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			log.WithError(err).WithFields(log.Fields{"group": group, "topic": topic}).Error("consume session failed, rejoining")
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

type groupHandler struct {
	group   string
	handler Handler
}

func (h *groupHandler) Setup(sess sarama.ConsumerGroupSession) error {
	log.WithFields(log.Fields{"group": h.group, "claims": sess.Claims()}).Debug("consumer session started")
	return nil
}

func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		ev, err := domain.DecodeEvent(msg.Topic, msg.Value, msg.Timestamp)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{"group": h.group, "topic": msg.Topic, "offset": msg.Offset}).Error("skipping malformed message")
			metrics.EventsConsumed.WithLabelValues(msg.Topic, "malformed").Inc()
			sess.MarkMessage(msg, "")
			continue
		}
		metrics.EventsConsumed.WithLabelValues(msg.Topic, "ok").Inc()
		if err := h.handler(sess.Context(), ev); err != nil {
			log.WithError(err).WithFields(log.Fields{"group": h.group, "topic": msg.Topic, "id": ev.EntityID}).Error("handler failed")
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}
