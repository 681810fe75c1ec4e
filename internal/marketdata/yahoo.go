package marketdata

import (
	"context"
	"fmt"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/paper-trader/internal/models"
)

var periodDays = map[string]int{
	"1d": 1, "5d": 5, "1mo": 30, "3mo": 90, "6mo": 180, "1y": 365, "2y": 730,
}

// Yahoo fetches quotes and bars from Yahoo Finance
type Yahoo struct {
	fetchQuote func(symbol string) (*finance.Quote, error)
	fetchBars  func(params *chart.Params) ([]finance.ChartBar, error)
	now        func() time.Time
}

// NewYahoo creates a Yahoo Finance provider
func NewYahoo() *Yahoo {
	return &Yahoo{
		fetchQuote: quote.Get,
		fetchBars:  chartBars,
		now:        time.Now,
	}
}

func chartBars(params *chart.Params) ([]finance.ChartBar, error) {
	iter := chart.Get(params)
	var bars []finance.ChartBar
	for iter.Next() {
		bars = append(bars, *iter.Bar())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return bars, nil
}

type yahooResult struct {
	md  *models.MarketData
	err error
}

// MarketData implements Provider. The finance-go client takes no context,
// so the call runs in a goroutine that is abandoned when ctx is done.
func (y *Yahoo) MarketData(ctx context.Context, symbol, period, interval string) (*models.MarketData, error) {
	symbol = models.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, ErrUnavailable
	}

	done := make(chan yahooResult, 1)
	go func() {
		md, err := y.fetch(symbol, period, interval)
		done <- yahooResult{md, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.md, res.err
	}
}

func (y *Yahoo) fetch(symbol, period, interval string) (*models.MarketData, error) {
	days, ok := periodDays[period]
	if !ok {
		days = 30
	}
	if interval == "" {
		interval = "1d"
	}
	end := y.now()
	// a one-day daily window can land on a weekend; widen it so there is a bar
	start := end.AddDate(0, 0, -days-4)

	bars, err := y.fetchBars(&chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.Interval(interval),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: yahoo chart for %s: %v", ErrUnavailable, symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: yahoo returned no bars for %s", ErrUnavailable, symbol)
	}

	history := make([]models.Candle, 0, len(bars))
	high, low := bars[0].High, bars[0].Low
	for _, bar := range bars {
		history = append(history, models.Candle{
			Date:   time.Unix(int64(bar.Timestamp), 0).UTC(),
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: int64(bar.Volume),
		})
		if bar.High.GreaterThan(high) {
			high = bar.High
		}
		if bar.Low.LessThan(low) {
			low = bar.Low
		}
	}

	last := history[len(history)-1]
	prev := last.Close
	if len(history) > 1 {
		prev = history[len(history)-2].Close
	}

	md := &models.MarketData{
		Symbol:        symbol,
		CurrentPrice:  last.Close,
		PreviousClose: prev,
		ChangePercent: models.ChangePercentOf(last.Close, prev),
		Volume:        last.Volume,
		High52w:       high,
		Low52w:        low,
		CompanyName:   symbol,
		Sector:        "N/A",
		History:       history,
		Source:        SourceYahoo,
	}
	if p, ok := profiles[symbol]; ok {
		md.CompanyName = p.name
		md.Sector = p.sector
	}

	// The quote adds the live price and 52-week range. Bars alone are enough
	// when it fails.
	if q, err := y.fetchQuote(symbol); err == nil && q != nil {
		if q.ShortName != "" {
			md.CompanyName = q.ShortName
		}
		if q.RegularMarketPrice > 0 {
			md.CurrentPrice = decimal.NewFromFloat(q.RegularMarketPrice)
		}
		if q.RegularMarketPreviousClose > 0 {
			md.PreviousClose = decimal.NewFromFloat(q.RegularMarketPreviousClose)
		}
		if q.FiftyTwoWeekHigh > 0 {
			md.High52w = decimal.NewFromFloat(q.FiftyTwoWeekHigh)
		}
		if q.FiftyTwoWeekLow > 0 {
			md.Low52w = decimal.NewFromFloat(q.FiftyTwoWeekLow)
		}
		if q.RegularMarketVolume > 0 {
			md.Volume = int64(q.RegularMarketVolume)
		}
		md.ChangePercent = models.ChangePercentOf(md.CurrentPrice, md.PreviousClose)
	}

	if !usable(md) {
		return nil, fmt.Errorf("%w: yahoo has no price for %s", ErrUnavailable, symbol)
	}
	return md, nil
}
