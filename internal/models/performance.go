package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Valuation is the result of pricing a ledger. Unpriced lists held symbols
// that could not be priced and were left out of the total.
type Valuation struct {
	Cash          decimal.Decimal `json:"cash"`
	HoldingsValue decimal.Decimal `json:"holdings_value"`
	Total         decimal.Decimal `json:"total"`
	Unpriced      []string        `json:"unpriced,omitempty"`
}

// HoldingDetail is the per-position breakdown in PerformanceStats
type HoldingDetail struct {
	Symbol        string          `json:"symbol"`
	Quantity      int64           `json:"quantity"`
	AverageCost   decimal.Decimal `json:"avg_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	CurrentValue  decimal.Decimal `json:"current_value"`
	CostBasis     decimal.Decimal `json:"cost_basis"`
	Pnl           decimal.Decimal `json:"pnl"`
	PnlPercentage decimal.Decimal `json:"pnl_pct"`
}

// PerformanceStats summarizes a ledger against current prices
type PerformanceStats struct {
	InitialBalance      decimal.Decimal `json:"initial_balance"`
	CurrentBalance      decimal.Decimal `json:"current_balance"`
	HoldingsValue       decimal.Decimal `json:"holdings_value"`
	TotalPortfolioValue decimal.Decimal `json:"total_portfolio_value"`
	TotalReturn         decimal.Decimal `json:"total_return"`
	ReturnPercentage    decimal.Decimal `json:"return_percentage"`
	TotalTrades         int             `json:"total_trades"`
	Holdings            []HoldingDetail `json:"holdings"`
	Unpriced            []string        `json:"unpriced,omitempty"`
}

// PerformancePoint is one entry of a ledger's performance history
type PerformancePoint struct {
	Timestamp  time.Time       `json:"timestamp"`
	Cash       decimal.Decimal `json:"cash"`
	TotalValue decimal.Decimal `json:"total_value"`
}
