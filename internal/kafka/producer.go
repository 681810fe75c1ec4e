package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/trogers1052/paper-trader/internal/models"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes trade and decision events to Kafka
type Producer struct {
	writer messageWriter
	topic  string
	now    func() time.Time
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
		now:    time.Now,
	}
}

// PublishTrade publishes a TRADE_EXECUTED event
func (p *Producer) PublishTrade(ctx context.Context, agent string, trade models.TradeRecord) error {
	event := models.TradeEvent{
		EventType: models.EventTradeExecuted,
		Agent:     agent,
		Symbol:    trade.Symbol,
		Trade:     trade,
		Timestamp: p.now(),
	}
	return p.publish(ctx, agent, event)
}

// PublishDecision publishes a DECISION_MADE event
func (p *Producer) PublishDecision(ctx context.Context, agent string, eval *models.Evaluation) error {
	event := models.DecisionEvent{
		EventType:  models.EventDecisionMade,
		Agent:      agent,
		Symbol:     eval.Symbol,
		Evaluation: eval,
		Timestamp:  p.now(),
	}
	return p.publish(ctx, agent, event)
}

// publish keys every event by agent so one agent's events stay ordered
// within a partition
func (p *Producer) publish(ctx context.Context, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}
	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
