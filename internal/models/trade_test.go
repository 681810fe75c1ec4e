package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTradeRecord_UnmarshalTimestamps(t *testing.T) {
	tests := []struct {
		name string
		ts   string
		want time.Time
	}{
		{"rfc3339", `"2026-01-02T15:00:00Z"`, time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)},
		{"offset", `"2026-01-02T10:00:00-05:00"`, time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)},
		{"no zone", `"2026-01-02T15:00:00.5"`, time.Date(2026, 1, 2, 15, 0, 0, 500000000, time.Local)},
		{"empty", `""`, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := `{"id":"t1","timestamp":` + tt.ts + `,"action":"SELL","symbol":"AAPL","quantity":3,"price":"210.5","total":631.5}`

			var rec TradeRecord
			require.NoError(t, json.Unmarshal([]byte(doc), &rec))
			assert.True(t, tt.want.Equal(rec.Timestamp), "got %s", rec.Timestamp)
			assert.Equal(t, "t1", rec.ID)
			assert.Equal(t, ActionSell, rec.Action)
			assert.Equal(t, int64(3), rec.Quantity)
			assert.True(t, rec.Price.Equal(decimal.RequireFromString("210.5")))
			assert.True(t, rec.TotalAmount.Equal(decimal.RequireFromString("631.5")))
		})
	}
}

func TestTradeRecord_UnmarshalBadTimestamp(t *testing.T) {
	var rec TradeRecord
	err := json.Unmarshal([]byte(`{"timestamp":"yesterday"}`), &rec)
	assert.Error(t, err)
}

func TestTradeRecord_RoundTrip(t *testing.T) {
	want := TradeRecord{
		ID:        "t2",
		Timestamp: time.Date(2026, 3, 4, 9, 30, 0, 123, time.UTC),
		Action:    ActionBuy,
		Symbol:    "MSFT",
		Quantity:  2,
		Price:     decimal.NewFromInt(400),
	}
	data, err := json.Marshal(want)
	require.NoError(t, err)

	var got TradeRecord
	require.NoError(t, json.Unmarshal(data, &got))
	assert.True(t, want.Timestamp.Equal(got.Timestamp))
	assert.Equal(t, want.Symbol, got.Symbol)
}
