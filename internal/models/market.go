package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candle represents one OHLCV bar
type Candle struct {
	Date   time.Time       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// MarketData is a market snapshot for a symbol with its history ordered oldest to newest
type MarketData struct {
	Symbol        string          `json:"symbol"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	PreviousClose decimal.Decimal `json:"previous_close"`
	ChangePercent float64         `json:"change_percent"`
	Volume        int64           `json:"volume"`
	High52w       decimal.Decimal `json:"high_52w"`
	Low52w        decimal.Decimal `json:"low_52w"`
	CompanyName   string          `json:"company_name"`
	Sector        string          `json:"sector"`
	History       []Candle        `json:"historical_data"`
	Source        string          `json:"data_source"`
}

// ChangePercentOf computes (current-previous)/previous*100, 0 when previous is zero
func ChangePercentOf(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		return 0
	}
	pct, _ := current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Float64()
	return pct
}
