package marketdata

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/paper-trader/internal/models"
)

type profile struct {
	name       string
	basePrice  float64
	volatility float64
	sector     string
}

var profiles = map[string]profile{
	"AAPL":  {"Apple Inc.", 195.50, 0.015, "Technology"},
	"GOOGL": {"Alphabet Inc.", 142.30, 0.018, "Technology"},
	"MSFT":  {"Microsoft Corporation", 420.50, 0.012, "Technology"},
	"AMZN":  {"Amazon.com Inc.", 178.25, 0.020, "Consumer Cyclical"},
	"TSLA":  {"Tesla Inc.", 248.50, 0.030, "Automotive"},
	"NVDA":  {"NVIDIA Corporation", 875.28, 0.025, "Technology"},
	"META":  {"Meta Platforms Inc.", 528.50, 0.020, "Technology"},
	"JPM":   {"JPMorgan Chase & Co.", 215.75, 0.010, "Financial"},
	"V":     {"Visa Inc.", 285.50, 0.012, "Financial"},
	"WMT":   {"Walmart Inc.", 85.25, 0.008, "Consumer Defensive"},
}

type intervalSpec struct {
	step          time.Duration
	points        map[string]int
	defaultPoints int
	volMultiplier float64
	minVolume     float64
	maxVolume     float64
	dateOnly      bool
}

var intervals = map[string]intervalSpec{
	"1m": {
		step:          time.Minute,
		points:        map[string]int{"1d": 390, "5d": 1950, "1mo": 8000},
		defaultPoints: 390,
		volMultiplier: 0.1,
		minVolume:     50_000, maxVolume: 500_000,
	},
	"5m": {
		step:          5 * time.Minute,
		points:        map[string]int{"1d": 78, "5d": 390, "1mo": 1600},
		defaultPoints: 78,
		volMultiplier: 0.2,
		minVolume:     200_000, maxVolume: 2_000_000,
	},
	"15m": {
		step:          15 * time.Minute,
		points:        map[string]int{"1d": 26, "5d": 130, "1mo": 530},
		defaultPoints: 26,
		volMultiplier: 0.3,
		minVolume:     500_000, maxVolume: 5_000_000,
	},
	"1d": {
		step:          24 * time.Hour,
		points:        map[string]int{"1d": 1, "5d": 5, "1mo": 30, "3mo": 90, "6mo": 180, "1y": 365, "2y": 730},
		defaultPoints: 30,
		volMultiplier: 1.0,
		minVolume:     5_000_000, maxVolume: 50_000_000,
		dateOnly:      true,
	},
}

const drift = 0.0001

// Synthetic generates random-walk market data. It never fails for a
// non-empty symbol.
type Synthetic struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewSynthetic creates a generator. A zero seed uses the current time.
func NewSynthetic(seed int64) *Synthetic {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Synthetic{
		rng: rand.New(rand.NewSource(seed)),
		now: time.Now,
	}
}

// Symbols lists the symbols with a built-in profile
func Symbols() []string {
	return []string{"AAPL", "GOOGL", "MSFT", "AMZN", "TSLA", "NVDA", "META", "JPM", "V", "WMT"}
}

// MarketData implements Provider
func (s *Synthetic) MarketData(ctx context.Context, symbol, period, interval string) (*models.MarketData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	symbol = models.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, ErrUnavailable
	}

	iv, ok := intervals[interval]
	if !ok {
		iv = intervals["1d"]
	}
	n, ok := iv.points[period]
	if !ok {
		n = iv.defaultPoints
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, known := profiles[symbol]
	if !known {
		p = profile{
			name:       symbol,
			basePrice:  50 + s.rng.Float64()*450,
			volatility: 0.010 + s.rng.Float64()*0.015,
			sector:     "Unknown",
		}
	}

	start := s.now().Add(-iv.step * time.Duration(n))
	if iv.dateOnly {
		start = truncateDay(start)
	}

	returnStd := p.volatility * iv.volMultiplier
	price := p.basePrice
	history := make([]models.Candle, 0, n)
	high, low := math.Inf(-1), math.Inf(1)

	for i := 0; i < n; i++ {
		ret := drift + s.rng.NormFloat64()*returnStd
		open := price
		cl := open * (1 + ret)
		spread := math.Abs(s.rng.NormFloat64() * returnStd * 0.5)
		hi := math.Max(open, cl) * (1 + spread)
		lo := math.Min(open, cl) * (1 - spread)
		vol := int64(iv.minVolume + s.rng.Float64()*(iv.maxVolume-iv.minVolume))

		history = append(history, models.Candle{
			Date:   start.Add(iv.step * time.Duration(i)),
			Open:   round2(open),
			High:   round2(hi),
			Low:    round2(lo),
			Close:  round2(cl),
			Volume: vol,
		})
		high = math.Max(high, hi)
		low = math.Min(low, lo)
		price = cl
	}

	last := history[len(history)-1]
	prev := last.Close
	if len(history) > 1 {
		prev = history[len(history)-2].Close
	}

	return &models.MarketData{
		Symbol:        symbol,
		CurrentPrice:  last.Close,
		PreviousClose: prev,
		ChangePercent: math.Round(models.ChangePercentOf(last.Close, prev)*100) / 100,
		Volume:        last.Volume,
		High52w:       round2(high),
		Low52w:        round2(low),
		CompanyName:   p.name,
		Sector:        p.sector,
		History:       history,
		Source:        SourceSimulated,
	}, nil
}

func round2(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(2)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
