package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/paper-trader/internal/models"
)

type mockMarket struct {
	mu    sync.Mutex
	data  map[string]*models.MarketData
	err   error
	block bool
	calls []string
}

func newMockMarket() *mockMarket {
	return &mockMarket{data: make(map[string]*models.MarketData)}
}

func (m *mockMarket) set(symbol, price string, change float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[symbol] = &models.MarketData{
		Symbol:        symbol,
		CurrentPrice:  decimal.RequireFromString(price),
		ChangePercent: change,
		Source:        "mock",
	}
}

func (m *mockMarket) MarketData(ctx context.Context, symbol, period, interval string) (*models.MarketData, error) {
	m.mu.Lock()
	m.calls = append(m.calls, symbol+"/"+period)
	block, err := m.block, m.err
	md, ok := m.data[symbol]
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("unknown symbol")
	}
	cp := *md
	return &cp, nil
}

type mockOracle struct {
	mu    sync.Mutex
	rec   models.Recommendation
	err   error
	block bool
	reqs  []models.OracleRequest
}

func (o *mockOracle) Recommend(ctx context.Context, req models.OracleRequest) (models.Recommendation, error) {
	o.mu.Lock()
	o.reqs = append(o.reqs, req)
	block, rec, err := o.block, o.rec, o.err
	o.mu.Unlock()

	if block {
		<-ctx.Done()
		return models.Recommendation{}, ctx.Err()
	}
	return rec, err
}

func (o *mockOracle) calls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.reqs)
}

type mockPublisher struct {
	mu        sync.Mutex
	decisions []*models.Evaluation
	trades    []models.TradeRecord
	err       error
}

func (p *mockPublisher) PublishDecision(ctx context.Context, agent string, eval *models.Evaluation) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.decisions = append(p.decisions, eval)
	return p.err
}

func (p *mockPublisher) PublishTrade(ctx context.Context, agent string, trade models.TradeRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.trades = append(p.trades, trade)
	return p.err
}

func qty(n int64) *int64 {
	return &n
}
