package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/paper-trader/internal/models"
)

// Validation errors. Returned for malformed input before any state is read.
var (
	ErrInvalidSymbol   = errors.New("symbol is required")
	ErrInvalidAction   = errors.New("action must be BUY or SELL")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidPrice    = errors.New("price must be positive")
	ErrInvalidBalance  = errors.New("initial balance must not be negative")
)

// Business rule violations, always wrapped in a *TradeRejection.
var (
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrNoPosition         = errors.New("no position held")
	ErrPositionTooLarge   = errors.New("position quantity limit exceeded")
)

// ErrCorruptState is returned by Restore when a snapshot fails validation
var ErrCorruptState = errors.New("corrupt ledger state")

// TradeRejection reports a trade that was well-formed but not allowed
type TradeRejection struct {
	Symbol   string
	Action   models.Action
	Quantity int64
	Price    decimal.Decimal
	Reason   error
	Detail   string
}

func (r *TradeRejection) Error() string {
	return fmt.Sprintf("%s %d %s @ %s rejected: %v (%s)", r.Action, r.Quantity, r.Symbol, r.Price, r.Reason, r.Detail)
}

func (r *TradeRejection) Unwrap() error {
	return r.Reason
}

// IsRejection reports whether err is a business rule rejection
func IsRejection(err error) bool {
	var r *TradeRejection
	return errors.As(err, &r)
}
