package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/paper-trader/internal/agent"
	"github.com/trogers1052/paper-trader/internal/engine"
	"github.com/trogers1052/paper-trader/internal/marketdata"
)

func newScalpAgent(t *testing.T) (*agent.Agent, *agent.Registry) {
	t.Helper()
	market := marketdata.NewSynthetic(7)
	registry := agent.NewRegistry(agent.Deps{
		Market: market,
		Prices: marketdata.NewPriceCache(market, nil, 0),
		Engine: engine.DefaultConfig(),
	})
	a, err := registry.Create("scalper", decimal.NewFromInt(10000))
	require.NoError(t, err)
	return a, registry
}

func TestRunScalp_StopsAfterRounds(t *testing.T) {
	a, registry := newScalpAgent(t)
	var out bytes.Buffer

	cycles := runScalp(context.Background(), &out, a, registry.PriceLookup, scalpOptions{
		Symbols:  []string{"AAPL", "MSFT"},
		Interval: "1m",
		Rounds:   3,
		Wait:     time.Millisecond,
	})

	assert.Equal(t, 3, cycles)
	assert.Len(t, a.Ledger.PerformanceHistory(), 3)
	assert.Contains(t, out.String(), "Cycle #3")
	assert.Contains(t, out.String(), "Stopped after 3 cycles")
	assert.False(t, a.Ledger.Cash().IsNegative())
}

func TestRunScalp_StopsOnCancel(t *testing.T) {
	a, registry := newScalpAgent(t)
	ctx, cancel := context.WithCancel(context.Background())
	var out bytes.Buffer

	done := make(chan int)
	go func() {
		done <- runScalp(ctx, &out, a, registry.PriceLookup, scalpOptions{
			Symbols:  []string{"AAPL"},
			Interval: "1m",
			Wait:     time.Hour,
		})
	}()

	require.Eventually(t, func() bool {
		return len(a.Ledger.PerformanceHistory()) == 1
	}, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case cycles := <-done:
		assert.Equal(t, 1, cycles)
	case <-time.After(5 * time.Second):
		t.Fatal("scalp loop did not stop after cancel")
	}
}

func TestScalpCmd_RejectsUnknownInterval(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"scalp", "--interval", "2h"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	t.Chdir(t.TempDir())
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interval must be one of")
}
