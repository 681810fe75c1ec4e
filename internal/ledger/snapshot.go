package ledger

import (
	"fmt"

	"github.com/trogers1052/paper-trader/internal/models"
)

// Snapshot returns a deep copy of the ledger state
func (l *Ledger) Snapshot() models.LedgerState {
	l.mu.RLock()
	defer l.mu.RUnlock()

	positions := make(map[string]models.PositionState, len(l.positions))
	for sym, pos := range l.positions {
		positions[sym] = models.PositionState{Quantity: pos.Quantity, AverageCost: pos.AverageCost}
	}
	history := make([]models.TradeRecord, len(l.history))
	copy(history, l.history)
	perf := make([]models.PerformancePoint, len(l.performance))
	copy(perf, l.performance)

	return models.LedgerState{
		Name:               l.name,
		InitialBalance:     l.initialBalance,
		Balance:            l.cash,
		Positions:          positions,
		TradeHistory:       history,
		PerformanceHistory: perf,
	}
}

// Restore replaces the entire ledger state with st. If st fails validation
// the ledger is left untouched and the error wraps ErrCorruptState.
func (l *Ledger) Restore(st models.LedgerState) error {
	positions, err := validateState(st)
	if err != nil {
		return err
	}
	history := make([]models.TradeRecord, len(st.TradeHistory))
	copy(history, st.TradeHistory)
	perf := make([]models.PerformancePoint, len(st.PerformanceHistory))
	copy(perf, st.PerformanceHistory)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.name = st.Name
	l.initialBalance = st.InitialBalance
	l.cash = st.Balance
	l.positions = positions
	l.history = history
	l.performance = perf
	return nil
}

// FromState builds a new ledger from a snapshot
func FromState(st models.LedgerState) (*Ledger, error) {
	l, err := New(st.Name, st.InitialBalance)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	if err := l.Restore(st); err != nil {
		return nil, err
	}
	return l, nil
}

func validateState(st models.LedgerState) (map[string]models.Position, error) {
	if st.InitialBalance.IsNegative() {
		return nil, fmt.Errorf("%w: negative initial balance %s", ErrCorruptState, st.InitialBalance)
	}
	if st.Balance.IsNegative() {
		return nil, fmt.Errorf("%w: negative balance %s", ErrCorruptState, st.Balance)
	}

	positions := make(map[string]models.Position, len(st.Positions))
	for sym, ps := range st.Positions {
		key := models.NormalizeSymbol(sym)
		if key == "" {
			return nil, fmt.Errorf("%w: empty position symbol", ErrCorruptState)
		}
		if _, dup := positions[key]; dup {
			return nil, fmt.Errorf("%w: duplicate position %s", ErrCorruptState, key)
		}
		if ps.Quantity <= 0 {
			return nil, fmt.Errorf("%w: position %s has quantity %d", ErrCorruptState, key, ps.Quantity)
		}
		if ps.AverageCost.IsNegative() {
			return nil, fmt.Errorf("%w: position %s has negative average cost", ErrCorruptState, key)
		}
		positions[key] = models.Position{Symbol: key, Quantity: ps.Quantity, AverageCost: ps.AverageCost}
	}

	for i, t := range st.TradeHistory {
		if t.Action != models.ActionBuy && t.Action != models.ActionSell {
			return nil, fmt.Errorf("%w: trade %d has action %q", ErrCorruptState, i, t.Action)
		}
		if t.Quantity <= 0 || !t.Price.IsPositive() {
			return nil, fmt.Errorf("%w: trade %d has quantity %d price %s", ErrCorruptState, i, t.Quantity, t.Price)
		}
		if models.NormalizeSymbol(t.Symbol) == "" {
			return nil, fmt.Errorf("%w: trade %d has no symbol", ErrCorruptState, i)
		}
	}
	return positions, nil
}
