package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptostock/internal/models"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestNewPublisher_NoBrokersIsNop(t *testing.T) {
	p := NewPublisher(nil, "ledger.trades")
	assert.IsType(t, NopPublisher{}, p)
	assert.NoError(t, p.PublishTrade(context.Background(), &models.Trade{}))
	assert.NoError(t, p.Close())
}

func TestKafkaPublisher_PublishTrade(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, "ledger.trades")
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return at }

	trade := &models.Trade{
		ID:       "t-1",
		Email:    "alice@example.com",
		AssetID:  "bitcoin",
		Kind:     models.TradeKindBuy,
		Quantity: 0.5,
		Total:    15000,
		Status:   models.TradeStatusCompleted,
		Date:     at,
	}
	require.NoError(t, p.PublishTrade(context.Background(), trade))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "alice@example.com", string(msg.Key))
	assert.Equal(t, at, msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, TradeRecorded, string(msg.Headers[0].Value))

	var event TradeEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, TradeRecorded, event.Type)
	assert.Equal(t, "t-1", event.Trade.ID)
	assert.Equal(t, 15000.0, event.Trade.Total)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	boom := errors.New("broker unreachable")
	p := newKafkaPublisher(&fakeWriter{err: boom}, "ledger.trades")

	err := p.PublishTrade(context.Background(), &models.Trade{ID: "t-2"})
	assert.ErrorIs(t, err, boom)
}
