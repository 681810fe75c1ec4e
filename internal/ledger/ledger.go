package ledger

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/paper-trader/internal/models"
)

var hundred = decimal.NewFromInt(100)

// PriceLookup resolves the current price of a symbol. An error means the
// price is unavailable right now.
type PriceLookup func(symbol string) (decimal.Decimal, error)

// Ledger is a paper-trading account: cash, positions and trade history.
// All methods are safe for concurrent use.
type Ledger struct {
	mu             sync.RWMutex
	name           string
	initialBalance decimal.Decimal
	cash           decimal.Decimal
	positions      map[string]models.Position
	history        []models.TradeRecord
	performance    []models.PerformancePoint

	now   func() time.Time
	newID func() string
}

// New creates a ledger holding initialBalance in cash
func New(name string, initialBalance decimal.Decimal) (*Ledger, error) {
	if initialBalance.IsNegative() {
		return nil, ErrInvalidBalance
	}
	return &Ledger{
		name:           name,
		initialBalance: initialBalance,
		cash:           initialBalance,
		positions:      make(map[string]models.Position),
		now:            time.Now,
		newID:          func() string { return uuid.New().String() },
	}, nil
}

// Name returns the ledger's owner name
func (l *Ledger) Name() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.name
}

// Cash returns the current cash balance
func (l *Ledger) Cash() decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cash
}

// InitialBalance returns the starting cash
func (l *Ledger) InitialBalance() decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.initialBalance
}

// Position returns the holding for symbol, if any
func (l *Ledger) Position(symbol string) (models.Position, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	pos, ok := l.positions[models.NormalizeSymbol(symbol)]
	return pos, ok
}

// Positions returns all holdings sorted by symbol
func (l *Ledger) Positions() []models.Position {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sortedPositions()
}

// History returns a copy of the trade history, oldest first
func (l *Ledger) History() []models.TradeRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.TradeRecord, len(l.history))
	copy(out, l.history)
	return out
}

// PerformanceHistory returns a copy of the recorded performance points
func (l *Ledger) PerformanceHistory() []models.PerformancePoint {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.PerformancePoint, len(l.performance))
	copy(out, l.performance)
	return out
}

// ExecuteTrade applies a BUY or SELL at price. Malformed input returns a
// validation error; a trade the account cannot support returns a
// *TradeRejection. In both cases the ledger is left unchanged.
func (l *Ledger) ExecuteTrade(symbol string, action models.Action, quantity int64, price decimal.Decimal, reasoning string) (models.TradeRecord, error) {
	symbol = models.NormalizeSymbol(symbol)
	if symbol == "" {
		return models.TradeRecord{}, ErrInvalidSymbol
	}
	if action != models.ActionBuy && action != models.ActionSell {
		return models.TradeRecord{}, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
	if quantity <= 0 {
		return models.TradeRecord{}, fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}
	if !price.IsPositive() {
		return models.TradeRecord{}, fmt.Errorf("%w: %s", ErrInvalidPrice, price)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	qty := decimal.NewFromInt(quantity)
	total := qty.Mul(price)
	pos, held := l.positions[symbol]

	var newCash decimal.Decimal
	var newPos models.Position

	switch action {
	case models.ActionBuy:
		if total.GreaterThan(l.cash) {
			return models.TradeRecord{}, l.reject(symbol, action, quantity, price, ErrInsufficientFunds,
				fmt.Sprintf("need %s, have %s", total.StringFixed(2), l.cash.StringFixed(2)))
		}
		if quantity > math.MaxInt64-pos.Quantity {
			return models.TradeRecord{}, l.reject(symbol, action, quantity, price, ErrPositionTooLarge,
				fmt.Sprintf("have %d shares", pos.Quantity))
		}
		newCash = l.cash.Sub(total)
		newPos = models.Position{
			Symbol:      symbol,
			Quantity:    pos.Quantity + quantity,
			AverageCost: weightedAvg(pos.AverageCost, pos.Quantity, price, quantity),
		}

	case models.ActionSell:
		if !held {
			return models.TradeRecord{}, l.reject(symbol, action, quantity, price, ErrNoPosition, "have 0 shares")
		}
		if quantity > pos.Quantity {
			return models.TradeRecord{}, l.reject(symbol, action, quantity, price, ErrInsufficientShares,
				fmt.Sprintf("have %d shares", pos.Quantity))
		}
		newCash = l.cash.Add(total)
		newPos = models.Position{
			Symbol:      symbol,
			Quantity:    pos.Quantity - quantity,
			AverageCost: pos.AverageCost,
		}
	}

	record := models.TradeRecord{
		ID:           l.newID(),
		Timestamp:    l.now(),
		Action:       action,
		Symbol:       symbol,
		Quantity:     quantity,
		Price:        price,
		TotalAmount:  total,
		BalanceAfter: newCash,
		Reasoning:    reasoning,
	}

	// Commit. Nothing below can fail.
	l.cash = newCash
	if newPos.Quantity == 0 {
		delete(l.positions, symbol)
	} else {
		l.positions[symbol] = newPos
	}
	l.history = append(l.history, record)

	return record, nil
}

func (l *Ledger) reject(symbol string, action models.Action, quantity int64, price decimal.Decimal, reason error, detail string) error {
	return &TradeRejection{
		Symbol:   symbol,
		Action:   action,
		Quantity: quantity,
		Price:    price,
		Reason:   reason,
		Detail:   detail,
	}
}

// Valuate prices every position with lookup and adds cash. Positions whose
// price cannot be resolved are skipped and listed in Unpriced.
func (l *Ledger) Valuate(lookup PriceLookup) models.Valuation {
	l.mu.RLock()
	cash := l.cash
	positions := l.sortedPositions()
	l.mu.RUnlock()

	holdings, _, unpriced := priceHoldings(positions, lookup)
	return models.Valuation{
		Cash:          cash,
		HoldingsValue: holdings,
		Total:         cash.Add(holdings),
		Unpriced:      unpriced,
	}
}

// PerformanceSnapshot reports returns and per-position P&L against lookup
func (l *Ledger) PerformanceSnapshot(lookup PriceLookup) models.PerformanceStats {
	l.mu.RLock()
	cash := l.cash
	initial := l.initialBalance
	trades := len(l.history)
	positions := l.sortedPositions()
	l.mu.RUnlock()

	holdingsValue, details, unpriced := priceHoldings(positions, lookup)
	total := cash.Add(holdingsValue)
	totalReturn := total.Sub(initial)

	returnPct := decimal.Zero
	if !initial.IsZero() {
		returnPct = totalReturn.Div(initial).Mul(hundred)
	}

	return models.PerformanceStats{
		InitialBalance:      initial,
		CurrentBalance:      cash,
		HoldingsValue:       holdingsValue,
		TotalPortfolioValue: total,
		TotalReturn:         totalReturn,
		ReturnPercentage:    returnPct,
		TotalTrades:         trades,
		Holdings:            details,
		Unpriced:            unpriced,
	}
}

// RecordPerformance values the ledger and appends the result to its
// performance history
func (l *Ledger) RecordPerformance(lookup PriceLookup) models.PerformancePoint {
	v := l.Valuate(lookup)

	l.mu.Lock()
	defer l.mu.Unlock()
	point := models.PerformancePoint{
		Timestamp:  l.now(),
		Cash:       v.Cash,
		TotalValue: v.Total,
	}
	l.performance = append(l.performance, point)
	return point
}

// sortedPositions must be called with the lock held
func (l *Ledger) sortedPositions() []models.Position {
	out := make([]models.Position, 0, len(l.positions))
	for _, pos := range l.positions {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func priceHoldings(positions []models.Position, lookup PriceLookup) (decimal.Decimal, []models.HoldingDetail, []string) {
	total := decimal.Zero
	details := make([]models.HoldingDetail, 0, len(positions))
	var unpriced []string

	for _, pos := range positions {
		price, err := lookup(pos.Symbol)
		if err != nil || !price.IsPositive() {
			unpriced = append(unpriced, pos.Symbol)
			continue
		}
		value := price.Mul(decimal.NewFromInt(pos.Quantity))
		costBasis := pos.CostBasis()
		pnl := value.Sub(costBasis)
		pnlPct := decimal.Zero
		if !costBasis.IsZero() {
			pnlPct = pnl.Div(costBasis).Mul(hundred)
		}
		total = total.Add(value)
		details = append(details, models.HoldingDetail{
			Symbol:        pos.Symbol,
			Quantity:      pos.Quantity,
			AverageCost:   pos.AverageCost,
			CurrentPrice:  price,
			CurrentValue:  value,
			CostBasis:     costBasis,
			Pnl:           pnl,
			PnlPercentage: pnlPct,
		})
	}
	return total, details, unpriced
}

func weightedAvg(existingAvg decimal.Decimal, existingQty int64, newPrice decimal.Decimal, newQty int64) decimal.Decimal {
	if existingQty == 0 {
		return newPrice
	}
	oldQty := decimal.NewFromInt(existingQty)
	addQty := decimal.NewFromInt(newQty)
	return existingAvg.Mul(oldQty).
		Add(newPrice.Mul(addQty)).
		Div(oldQty.Add(addQty))
}

// String is used in log lines
func (l *Ledger) String() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	syms := make([]string, 0, len(l.positions))
	for s := range l.positions {
		syms = append(syms, s)
	}
	sort.Strings(syms)
	return fmt.Sprintf("%s cash=%s positions=[%s] trades=%d", l.name, l.cash.StringFixed(2), strings.Join(syms, ","), len(l.history))
}
