package models

import "time"

// Event types
const (
	EventTradeExecuted     = "TRADE_EXECUTED"
	EventDecisionMade      = "DECISION_MADE"
	EventEvaluateRequested = "EVALUATE_REQUESTED"
)

// TradeEvent is published after a paper trade is executed
type TradeEvent struct {
	EventType string      `json:"event_type"`
	Agent     string      `json:"agent"`
	Symbol    string      `json:"symbol"`
	Trade     TradeRecord `json:"trade"`
	Timestamp time.Time   `json:"timestamp"`
}

// DecisionEvent is published after every completed evaluation
type DecisionEvent struct {
	EventType  string      `json:"event_type"`
	Agent      string      `json:"agent"`
	Symbol     string      `json:"symbol"`
	Evaluation *Evaluation `json:"evaluation"`
	Timestamp  time.Time   `json:"timestamp"`
}

// EvaluateRequest asks an agent to evaluate a symbol
type EvaluateRequest struct {
	EventType string `json:"event_type"`
	Agent     string `json:"agent"`
	Symbol    string `json:"symbol"`
}
