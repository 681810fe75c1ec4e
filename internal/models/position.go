package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Position represents a current holding of a single symbol.
// A Position only exists while Quantity > 0.
type Position struct {
	Symbol      string          `json:"symbol"`
	Quantity    int64           `json:"quantity"`
	AverageCost decimal.Decimal `json:"average_cost"`
}

// CostBasis returns quantity * average cost
func (p Position) CostBasis() decimal.Decimal {
	return p.AverageCost.Mul(decimal.NewFromInt(p.Quantity))
}

// NormalizeSymbol trims and upper-cases a ticker so it can be used as a position key
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
