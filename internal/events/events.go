// Package events publishes ledger events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"cryptostock/internal/logger"
	"cryptostock/internal/models"
)

// TradeRecorded is the event type emitted after a trade is appended.
const TradeRecorded = "trade.recorded"

// TradeEvent is the JSON payload of a trade event.
type TradeEvent struct {
	Type       string       `json:"type"`
	Trade      models.Trade `json:"trade"`
	OccurredAt time.Time    `json:"occurredAt"`
}

// Publisher emits ledger events.
type Publisher interface {
	PublishTrade(ctx context.Context, trade *models.Trade) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes trade events to a Kafka topic keyed by user email, so
// one user's events stay ordered within a partition.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger *zap.SugaredLogger
	now    func() time.Time
}

// NewPublisher returns a KafkaPublisher for the given brokers, or a
// NopPublisher when no brokers are configured.
func NewPublisher(brokers []string, topic string) Publisher {
	if len(brokers) == 0 {
		logger.Named("events").Infow("no kafka brokers configured, trade events disabled")
		return NopPublisher{}
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
	}
	return newKafkaPublisher(writer, topic)
}

func newKafkaPublisher(w messageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: w,
		topic:  topic,
		logger: logger.Named("events"),
		now:    time.Now,
	}
}

// PublishTrade emits a trade.recorded event.
func (p *KafkaPublisher) PublishTrade(ctx context.Context, trade *models.Trade) error {
	msg, err := p.tradeMessage(trade)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Errorw("failed to publish trade event", "topic", p.topic, "trade_id", trade.ID, "error", err)
		return fmt.Errorf("publishing trade event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) tradeMessage(trade *models.Trade) (kafka.Message, error) {
	now := p.now()
	data, err := json.Marshal(TradeEvent{Type: TradeRecorded, Trade: *trade, OccurredAt: now})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshaling trade event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(trade.Email),
		Value: data,
		Time:  now,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(TradeRecorded)},
		},
	}, nil
}

// Close flushes pending messages and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) PublishTrade(context.Context, *models.Trade) error { return nil }
func (NopPublisher) Close() error                                      { return nil }
