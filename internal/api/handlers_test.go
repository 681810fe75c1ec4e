package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/paper-trader/internal/agent"
	"github.com/trogers1052/paper-trader/internal/engine"
	"github.com/trogers1052/paper-trader/internal/ledger"
	"github.com/trogers1052/paper-trader/internal/marketdata"
	"github.com/trogers1052/paper-trader/internal/models"
)

type stubMarket struct {
	mu   sync.Mutex
	data map[string]*models.MarketData
}

func (s *stubMarket) set(symbol, price string, change float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[symbol] = &models.MarketData{
		Symbol:        symbol,
		CurrentPrice:  decimal.RequireFromString(price),
		ChangePercent: change,
		Source:        "stub",
	}
}

func (s *stubMarket) MarketData(ctx context.Context, symbol, period, interval string) (*models.MarketData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	md, ok := s.data[symbol]
	if !ok {
		return nil, errors.New("unknown symbol")
	}
	cp := *md
	return &cp, nil
}

type memoryRepository struct {
	mu     sync.Mutex
	states map[string]models.LedgerState
}

func (m *memoryRepository) Save(ctx context.Context, st models.LedgerState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[st.Name] = st
	return nil
}

func (m *memoryRepository) Load(ctx context.Context, name string) (models.LedgerState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[name]
	if !ok {
		return models.LedgerState{}, models.ErrNoState
	}
	return st, nil
}

func setupTestRouter(t *testing.T) (*mux.Router, *stubMarket, *agent.Registry) {
	t.Helper()
	market := &stubMarket{data: make(map[string]*models.MarketData)}
	market.set("AAPL", "200", 2.0)
	market.set("MSFT", "400", 0)

	registry := agent.NewRegistry(agent.Deps{
		Market:     market,
		Prices:     marketdata.NewPriceCache(market, nil, 0),
		Repository: &memoryRepository{states: make(map[string]models.LedgerState)},
		Engine:     engine.DefaultConfig(),
	})
	handler := NewHandler(registry, market, decimal.NewFromInt(10000))
	return SetupRoutes(handler), market, registry
}

func doRequest(router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func createAgent(t *testing.T, router http.Handler, name string, balance float64) {
	t.Helper()
	rr := doRequest(router, "POST", "/api/v1/agents", map[string]interface{}{"name": name, "initial_balance": balance})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
}

func TestHealthCheck(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	rr := doRequest(router, "GET", "/health", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"healthy"}`, rr.Body.String())
}

func TestCreateAgent(t *testing.T) {
	router, _, registry := setupTestRouter(t)

	rr := doRequest(router, "POST", "/api/v1/agents", map[string]interface{}{"name": "alpha", "initial_balance": 5000})
	require.Equal(t, http.StatusCreated, rr.Code)

	var stats models.PerformanceStats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.True(t, stats.InitialBalance.Equal(decimal.NewFromInt(5000)))
	assert.True(t, stats.TotalPortfolioValue.Equal(decimal.NewFromInt(5000)))

	t.Run("default balance", func(t *testing.T) {
		rr := doRequest(router, "POST", "/api/v1/agents", map[string]string{"name": "beta"})
		require.Equal(t, http.StatusCreated, rr.Code)
		a, err := registry.Get("beta")
		require.NoError(t, err)
		assert.True(t, a.Ledger.Cash().Equal(decimal.NewFromInt(10000)))
	})

	tests := []struct {
		name string
		body interface{}
		code int
	}{
		{"duplicate", map[string]interface{}{"name": "alpha", "initial_balance": 1}, http.StatusConflict},
		{"invalid name", map[string]interface{}{"name": "no spaces", "initial_balance": 1}, http.StatusBadRequest},
		{"negative balance", map[string]interface{}{"name": "gamma", "initial_balance": -1}, http.StatusBadRequest},
		{"invalid body", "{not json", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(router, "POST", "/api/v1/agents", tt.body)
			assert.Equal(t, tt.code, rr.Code)
		})
	}

	rr = doRequest(router, "GET", "/api/v1/agents", nil)
	assert.JSONEq(t, `{"agents":["alpha","beta"]}`, rr.Body.String())
}

func TestUnknownAgent(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	paths := []struct{ method, path string }{
		{"GET", "/api/v1/agents/ghost/status"},
		{"POST", "/api/v1/agents/ghost/decide"},
		{"POST", "/api/v1/agents/ghost/trades"},
		{"GET", "/api/v1/agents/ghost/portfolio"},
		{"GET", "/api/v1/agents/ghost/history"},
		{"POST", "/api/v1/agents/ghost/save"},
	}
	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			rr := doRequest(router, p.method, p.path, map[string]string{"symbol": "AAPL"})
			assert.Equal(t, http.StatusNotFound, rr.Code)
		})
	}
}

func TestExecuteTrade(t *testing.T) {
	router, _, _ := setupTestRouter(t)
	createAgent(t, router, "alpha", 10000)

	rr := doRequest(router, "POST", "/api/v1/agents/alpha/trades", map[string]interface{}{"symbol": "aapl", "action": "buy", "quantity": 10})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var record models.TradeRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &record))
	assert.Equal(t, "AAPL", record.Symbol)
	assert.Equal(t, models.ActionBuy, record.Action)
	assert.True(t, record.TotalAmount.Equal(decimal.NewFromInt(2000)))
	assert.True(t, record.BalanceAfter.Equal(decimal.NewFromInt(8000)))
	assert.Equal(t, engine.ManualTradeReasoning, record.Reasoning)

	tests := []struct {
		name string
		body interface{}
		code int
	}{
		{"sell more than held", map[string]interface{}{"symbol": "AAPL", "action": "SELL", "quantity": 11}, http.StatusUnprocessableEntity},
		{"sell without position", map[string]interface{}{"symbol": "MSFT", "action": "SELL", "quantity": 1}, http.StatusUnprocessableEntity},
		{"insufficient funds", map[string]interface{}{"symbol": "MSFT", "action": "BUY", "quantity": 100}, http.StatusUnprocessableEntity},
		{"hold is not a trade", map[string]interface{}{"symbol": "AAPL", "action": "HOLD", "quantity": 1}, http.StatusBadRequest},
		{"zero quantity", map[string]interface{}{"symbol": "AAPL", "action": "BUY", "quantity": 0}, http.StatusBadRequest},
		{"missing symbol", map[string]interface{}{"action": "BUY", "quantity": 1}, http.StatusBadRequest},
		{"unpriced symbol", map[string]interface{}{"symbol": "ZZZZ", "action": "BUY", "quantity": 1}, http.StatusBadGateway},
		{"invalid body", "[", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(router, "POST", "/api/v1/agents/alpha/trades", tt.body)
			assert.Equal(t, tt.code, rr.Code, rr.Body.String())
		})
	}

	rr = doRequest(router, "GET", "/api/v1/agents/alpha/history", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var history struct {
		Trades []models.TradeRecord `json:"trades"`
		Total  int                  `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &history))
	assert.Equal(t, 1, history.Total)
	assert.Len(t, history.Trades, 1)
}

func TestDecide(t *testing.T) {
	router, _, _ := setupTestRouter(t)
	createAgent(t, router, "alpha", 10000)

	rr := doRequest(router, "POST", "/api/v1/agents/alpha/decide", map[string]string{"symbol": "AAPL"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var eval models.Evaluation
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &eval))
	assert.Equal(t, models.ActionBuy, eval.Recommendation.Action)
	assert.Equal(t, models.SourceFallback, eval.Recommendation.Source)
	assert.True(t, eval.Executed)
	require.NotNil(t, eval.Trade)
	assert.Equal(t, int64(5), eval.Trade.Quantity)

	t.Run("hold is skipped", func(t *testing.T) {
		rr := doRequest(router, "POST", "/api/v1/agents/alpha/decide", map[string]string{"symbol": "MSFT"})
		require.Equal(t, http.StatusOK, rr.Code)
		var eval models.Evaluation
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &eval))
		assert.False(t, eval.Executed)
		assert.Equal(t, models.SkipHold, eval.SkipReason)
	})

	t.Run("market unavailable", func(t *testing.T) {
		rr := doRequest(router, "POST", "/api/v1/agents/alpha/decide", map[string]string{"symbol": "ZZZZ"})
		assert.Equal(t, http.StatusBadGateway, rr.Code)
		assert.Contains(t, rr.Body.String(), "could not evaluate")
	})

	t.Run("empty symbol", func(t *testing.T) {
		rr := doRequest(router, "POST", "/api/v1/agents/alpha/decide", map[string]string{"symbol": " "})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestGetPortfolioAndStatus(t *testing.T) {
	router, market, _ := setupTestRouter(t)
	createAgent(t, router, "alpha", 10000)
	rr := doRequest(router, "POST", "/api/v1/agents/alpha/trades", map[string]interface{}{"symbol": "AAPL", "action": "BUY", "quantity": 10})
	require.Equal(t, http.StatusCreated, rr.Code)

	market.set("AAPL", "220", 10)

	rr = doRequest(router, "GET", "/api/v1/agents/alpha/portfolio", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var portfolio struct {
		Cash      decimal.Decimal   `json:"cash"`
		Positions []models.Position `json:"positions"`
		Valuation models.Valuation  `json:"valuation"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &portfolio))
	assert.True(t, portfolio.Cash.Equal(decimal.NewFromInt(8000)))
	require.Len(t, portfolio.Positions, 1)
	assert.True(t, portfolio.Valuation.Total.Equal(decimal.NewFromInt(10200)))

	rr = doRequest(router, "GET", "/api/v1/agents/alpha/status", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var stats models.PerformanceStats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.True(t, stats.TotalReturn.Equal(decimal.NewFromInt(200)))
	assert.True(t, stats.ReturnPercentage.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, 1, stats.TotalTrades)
}

func TestSaveAndLoad(t *testing.T) {
	router, _, registry := setupTestRouter(t)
	createAgent(t, router, "alpha", 10000)

	rr := doRequest(router, "POST", "/api/v1/agents/alpha/load", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doRequest(router, "POST", "/api/v1/agents/alpha/trades", map[string]interface{}{"symbol": "AAPL", "action": "BUY", "quantity": 1})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doRequest(router, "POST", "/api/v1/agents/alpha/save", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(router, "POST", "/api/v1/agents/alpha/trades", map[string]interface{}{"symbol": "AAPL", "action": "SELL", "quantity": 1})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doRequest(router, "POST", "/api/v1/agents/alpha/load", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	a, err := registry.Get("alpha")
	require.NoError(t, err)
	assert.True(t, a.Ledger.Cash().Equal(decimal.NewFromInt(9800)))
	assert.Len(t, a.Ledger.History(), 1)
}

func TestGetMarketData(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	rr := doRequest(router, "GET", "/api/v1/market/aapl?period=5d&interval=1h", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var md models.MarketData
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &md))
	assert.Equal(t, "AAPL", md.Symbol)
	assert.True(t, md.CurrentPrice.Equal(decimal.NewFromInt(200)))

	rr = doRequest(router, "GET", "/api/v1/market/ZZZZ", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(agent.ErrNoRepository))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(fmt.Errorf("%w: negative balance", ledger.ErrCorruptState)))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}
