package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recommendation sources
const (
	SourceOracle   = "oracle"
	SourceFallback = "fallback"
)

// Recommendation is the output of a recommendation provider
type Recommendation struct {
	Action            Action  `json:"action"`
	Confidence        float64 `json:"confidence"`
	Reasoning         string  `json:"reasoning"`
	SuggestedQuantity *int64  `json:"suggested_quantity,omitempty"`
	Source            string  `json:"source,omitempty"`
	RawResponse       string  `json:"ai_full_response,omitempty"`
}

// OracleRequest is what a recommendation provider is told about the market
// and the agent's current exposure to the symbol.
type OracleRequest struct {
	Market       *MarketData     `json:"market"`
	Cash         decimal.Decimal `json:"cash"`
	HeldQuantity int64           `json:"held_quantity"`
	AverageCost  decimal.Decimal `json:"average_cost"`
}

// Outcome of an evaluation
type Outcome string

const (
	OutcomeExecuted Outcome = "EXECUTED"
	OutcomeSkipped  Outcome = "SKIPPED"
)

// SkipReason explains why an evaluation did not trade
type SkipReason string

const (
	SkipHold              SkipReason = "hold"
	SkipBelowConfidence   SkipReason = "below_confidence"
	SkipInsufficientFunds SkipReason = "insufficient_funds"
	SkipNoPosition        SkipReason = "no_position"
	SkipTradeRejected     SkipReason = "trade_rejected"
)

// Evaluation is a recommendation augmented with what the engine did with it
type Evaluation struct {
	Symbol         string          `json:"symbol"`
	Recommendation Recommendation  `json:"recommendation"`
	Price          decimal.Decimal `json:"price"`
	Outcome        Outcome         `json:"outcome"`
	Executed       bool            `json:"executed"`
	Trade          *TradeRecord    `json:"trade,omitempty"`
	SkipReason     SkipReason      `json:"skip_reason,omitempty"`
	Detail         string          `json:"detail,omitempty"`
	EvaluatedAt    time.Time       `json:"evaluated_at"`
}
