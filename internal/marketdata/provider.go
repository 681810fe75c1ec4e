// Package marketdata fetches market snapshots and prices for symbols.
package marketdata

import (
	"context"
	"errors"

	"github.com/trogers1052/paper-trader/internal/models"
)

// ErrUnavailable is returned when a provider has no usable data for a symbol
var ErrUnavailable = errors.New("market data unavailable")

// Data sources reported in MarketData.Source
const (
	SourceYahoo     = "yahoo_finance"
	SourceSimulated = "simulated"
)

// Provider returns a market snapshot for symbol. History is ordered oldest
// to newest.
type Provider interface {
	MarketData(ctx context.Context, symbol, period, interval string) (*models.MarketData, error)
}

// usable reports whether md carries a positive current price
func usable(md *models.MarketData) bool {
	return md != nil && md.CurrentPrice.IsPositive()
}
