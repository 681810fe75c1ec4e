package models

import "github.com/shopspring/decimal"

// PositionState is the persisted form of a Position
type PositionState struct {
	Quantity    int64           `json:"quantity"`
	AverageCost decimal.Decimal `json:"avg_price"`
}

// LedgerState is the transport-agnostic snapshot of a ledger
type LedgerState struct {
	Name               string                   `json:"name"`
	InitialBalance     decimal.Decimal          `json:"initial_balance"`
	Balance            decimal.Decimal          `json:"balance"`
	Positions          map[string]PositionState `json:"portfolio"`
	TradeHistory       []TradeRecord            `json:"trade_history"`
	PerformanceHistory []PerformancePoint       `json:"performance_history"`
}
