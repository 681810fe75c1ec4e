package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/paper-trader/internal/models"
)

type mockWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *mockWriter) Close() error { return nil }

func newTestProducer(w *mockWriter) *Producer {
	ts := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	return &Producer{writer: w, topic: "paper-trades", now: func() time.Time { return ts }}
}

func TestProducer_PublishTrade(t *testing.T) {
	w := &mockWriter{}
	p := newTestProducer(w)

	trade := models.TradeRecord{
		ID:       "t1",
		Action:   models.ActionBuy,
		Symbol:   "AAPL",
		Quantity: 10,
		Price:    decimal.RequireFromString("195.50"),
	}
	require.NoError(t, p.PublishTrade(context.Background(), "alpha", trade))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "alpha", string(w.msgs[0].Key))

	var event models.TradeEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &event))
	assert.Equal(t, models.EventTradeExecuted, event.EventType)
	assert.Equal(t, "alpha", event.Agent)
	assert.Equal(t, "t1", event.Trade.ID)
	assert.True(t, event.Trade.Price.Equal(trade.Price))
}

func TestProducer_PublishDecision(t *testing.T) {
	w := &mockWriter{}
	p := newTestProducer(w)

	eval := &models.Evaluation{
		Symbol:         "TSLA",
		Recommendation: models.Recommendation{Action: models.ActionSell, Confidence: 0.6},
		Outcome:        models.OutcomeSkipped,
		SkipReason:     models.SkipNoPosition,
	}
	require.NoError(t, p.PublishDecision(context.Background(), "alpha", eval))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "alpha", string(w.msgs[0].Key))
	var event models.DecisionEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &event))
	assert.Equal(t, models.EventDecisionMade, event.EventType)
	assert.Equal(t, "TSLA", event.Symbol)
	require.NotNil(t, event.Evaluation)
	assert.Equal(t, models.SkipNoPosition, event.Evaluation.SkipReason)
}

func TestProducer_WriteError(t *testing.T) {
	p := newTestProducer(&mockWriter{err: errors.New("leader not available")})

	err := p.PublishTrade(context.Background(), "alpha", models.TradeRecord{Symbol: "AAPL"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write message to kafka")
}
