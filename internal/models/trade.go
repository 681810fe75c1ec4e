package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Action is a trading action produced by a recommendation or requested by a caller
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// ParseAction converts free-form text into an Action
func ParseAction(s string) (Action, bool) {
	switch Action(strings.ToUpper(strings.TrimSpace(s))) {
	case ActionBuy:
		return ActionBuy, true
	case ActionSell:
		return ActionSell, true
	case ActionHold:
		return ActionHold, true
	}
	return "", false
}

// TradeRecord is an executed paper trade. Records are never mutated once
// appended to a ledger's history.
type TradeRecord struct {
	ID           string          `json:"id"`
	Timestamp    time.Time       `json:"timestamp"`
	Action       Action          `json:"action"`
	Symbol       string          `json:"symbol"`
	Quantity     int64           `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	TotalAmount  decimal.Decimal `json:"total"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	Reasoning    string          `json:"reasoning"`
}

// naiveTimestamp is the layout of state files written without a zone offset.
// Such timestamps are read as local time.
const naiveTimestamp = "2006-01-02T15:04:05.999999999"

// UnmarshalJSON accepts RFC 3339 timestamps as well as ones without a zone
func (t *TradeRecord) UnmarshalJSON(data []byte) error {
	type Alias TradeRecord
	aux := struct {
		*Alias
		Timestamp string `json:"timestamp"`
	}{Alias: (*Alias)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Timestamp == "" {
		t.Timestamp = time.Time{}
		return nil
	}
	ts, err := time.Parse(time.RFC3339Nano, aux.Timestamp)
	if err != nil {
		ts, err = time.ParseInLocation(naiveTimestamp, aux.Timestamp, time.Local)
		if err != nil {
			return fmt.Errorf("invalid trade timestamp %q", aux.Timestamp)
		}
	}
	t.Timestamp = ts
	return nil
}
