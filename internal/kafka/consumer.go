package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/trogers1052/paper-trader/internal/models"
)

// Evaluator runs a decision cycle for a named agent
type Evaluator interface {
	Evaluate(ctx context.Context, agent, symbol string) (*models.Evaluation, error)
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
	Config() kafka.ReaderConfig
}

// RequestConsumer consumes EVALUATE_REQUESTED events and runs them
type RequestConsumer struct {
	reader    messageReader
	evaluator Evaluator
}

// NewRequestConsumer creates a new Kafka consumer for evaluation requests
func NewRequestConsumer(brokers []string, topic, groupID string, evaluator Evaluator) *RequestConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.LastOffset,
		CommitInterval: time.Second,
	})

	return &RequestConsumer{
		reader:    reader,
		evaluator: evaluator,
	}
}

// Start consumes until ctx is cancelled
func (c *RequestConsumer) Start(ctx context.Context) error {
	log.Printf("Starting Kafka consumer for topic: %s", c.reader.Config().Topic)

	for {
		select {
		case <-ctx.Done():
			log.Println("Kafka consumer shutting down...")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return c.reader.Close()
				}
				log.Printf("Error reading message: %v", err)
				continue
			}

			if err := c.processMessage(ctx, msg); err != nil {
				log.Printf("Error processing message: %v", err)
			}
		}
	}
}

func (c *RequestConsumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var req models.EvaluateRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		return fmt.Errorf("failed to unmarshal evaluate request: %w", err)
	}

	if req.EventType != models.EventEvaluateRequested {
		log.Printf("Ignoring event type: %s", req.EventType)
		return nil
	}
	if req.Agent == "" || req.Symbol == "" {
		return fmt.Errorf("evaluate request at offset %d is missing agent or symbol", msg.Offset)
	}

	eval, err := c.evaluator.Evaluate(ctx, req.Agent, req.Symbol)
	if err != nil {
		return fmt.Errorf("evaluate %s for %s: %w", req.Symbol, req.Agent, err)
	}

	log.Printf("Evaluated %s for %s: %s %s", req.Symbol, req.Agent, eval.Recommendation.Action, eval.Outcome)
	return nil
}

// Close closes the Kafka consumer
func (c *RequestConsumer) Close() error {
	return c.reader.Close()
}
