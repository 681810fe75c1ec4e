package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/paper-trader/internal/ledger"
	"github.com/trogers1052/paper-trader/internal/models"
)

// ErrMarketDataUnavailable is returned when an evaluation cannot start
// because no usable market data could be fetched
var ErrMarketDataUnavailable = errors.New("market data unavailable")

// ManualTradeReasoning is recorded on trades placed through ManualTrade
const ManualTradeReasoning = "Manual trade"

// MarketDataProvider fetches a market snapshot for a symbol
type MarketDataProvider interface {
	MarketData(ctx context.Context, symbol, period, interval string) (*models.MarketData, error)
}

// Oracle produces a trading recommendation. Any error makes the engine fall
// back to the momentum heuristic.
type Oracle interface {
	Recommend(ctx context.Context, req models.OracleRequest) (models.Recommendation, error)
}

// EventPublisher receives evaluation results. Failures are logged only.
type EventPublisher interface {
	PublishDecision(ctx context.Context, agent string, eval *models.Evaluation) error
	PublishTrade(ctx context.Context, agent string, trade models.TradeRecord) error
}

// Config holds the decision policy. Start from DefaultConfig; New fills in
// zero sizing, period and interval, but a zero ConfidenceThreshold is kept
// and lets every BUY or SELL through.
type Config struct {
	ConfidenceThreshold  float64
	DefaultSizingDivisor int64
	Period               string
	Interval             string
	FetchTimeout         time.Duration
	OracleTimeout        time.Duration
}

// DefaultConfig returns the standard policy
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold:  0.5,
		DefaultSizingDivisor: 10,
		Period:               "1mo",
		Interval:             "1d",
		FetchTimeout:         10 * time.Second,
		OracleTimeout:        30 * time.Second,
	}
}

// Option configures an Engine
type Option func(*Engine)

// WithPublisher attaches an event publisher
func WithPublisher(p EventPublisher) Option {
	return func(e *Engine) {
		e.publisher = p
	}
}

// Engine turns market data and a recommendation into at most one trade
// against its ledger
type Engine struct {
	ledger    *ledger.Ledger
	market    MarketDataProvider
	oracle    Oracle
	publisher EventPublisher
	cfg       Config
	now       func() time.Time
}

// New creates an engine. oracle may be nil, in which case every
// evaluation uses the fallback heuristic.
func New(l *ledger.Ledger, market MarketDataProvider, oracle Oracle, cfg Config, opts ...Option) *Engine {
	defaults := DefaultConfig()
	if cfg.DefaultSizingDivisor <= 0 {
		cfg.DefaultSizingDivisor = defaults.DefaultSizingDivisor
	}
	if cfg.Period == "" {
		cfg.Period = defaults.Period
	}
	if cfg.Interval == "" {
		cfg.Interval = defaults.Interval
	}

	e := &Engine{
		ledger: l,
		market: market,
		oracle: oracle,
		cfg:    cfg,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Ledger returns the ledger the engine trades against
func (e *Engine) Ledger() *ledger.Ledger {
	return e.ledger
}

// Config returns the engine's policy
func (e *Engine) Config() Config {
	return e.cfg
}

// Evaluate fetches market data for symbol, gets a recommendation and acts
// on it. An error is returned only when market data is unavailable; every
// other path, including skipped and rejected trades, yields an Evaluation.
func (e *Engine) Evaluate(ctx context.Context, symbol string) (*models.Evaluation, error) {
	return e.EvaluateWith(ctx, symbol, e.cfg.Period, e.cfg.Interval)
}

// EvaluateWith is Evaluate over a caller-chosen history period and bar interval
func (e *Engine) EvaluateWith(ctx context.Context, symbol, period, interval string) (*models.Evaluation, error) {
	symbol = models.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, ledger.ErrInvalidSymbol
	}

	market, err := e.fetchMarketData(ctx, symbol, period, interval)
	if err != nil {
		return nil, err
	}

	rec := e.recommend(ctx, market)
	log.Printf("%s decision for %s: %s (confidence %.0f%%, %s)", e.ledger.Name(), symbol, rec.Action, rec.Confidence*100, rec.Source)

	eval, err := e.act(symbol, market.CurrentPrice, rec)
	if err != nil {
		return nil, err
	}

	e.publish(ctx, eval)
	return eval, nil
}

// ManualTrade executes a caller-chosen trade at the current market price
func (e *Engine) ManualTrade(ctx context.Context, symbol string, action models.Action, quantity int64) (models.TradeRecord, error) {
	symbol = models.NormalizeSymbol(symbol)
	if symbol == "" {
		return models.TradeRecord{}, ledger.ErrInvalidSymbol
	}
	if action != models.ActionBuy && action != models.ActionSell {
		return models.TradeRecord{}, fmt.Errorf("%w: %q", ledger.ErrInvalidAction, action)
	}
	if quantity <= 0 {
		return models.TradeRecord{}, fmt.Errorf("%w: %d", ledger.ErrInvalidQuantity, quantity)
	}

	market, err := e.fetchMarketData(ctx, symbol, "1d", e.cfg.Interval)
	if err != nil {
		return models.TradeRecord{}, err
	}

	record, err := e.ledger.ExecuteTrade(symbol, action, quantity, market.CurrentPrice, ManualTradeReasoning)
	if err != nil {
		return models.TradeRecord{}, err
	}
	if e.publisher != nil {
		if err := e.publisher.PublishTrade(ctx, e.ledger.Name(), record); err != nil {
			log.Printf("Failed to publish trade event for %s: %v", symbol, err)
		}
	}
	return record, nil
}

func (e *Engine) fetchMarketData(ctx context.Context, symbol, period, interval string) (*models.MarketData, error) {
	fetchCtx := ctx
	if e.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, e.cfg.FetchTimeout)
		defer cancel()
	}

	market, err := e.market.MarketData(fetchCtx, symbol, period, interval)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMarketDataUnavailable, symbol, err)
	}
	if market == nil || !market.CurrentPrice.IsPositive() {
		return nil, fmt.Errorf("%w: %s: no current price", ErrMarketDataUnavailable, symbol)
	}
	return market, nil
}

// recommend asks the oracle once and falls back to the heuristic on any failure
func (e *Engine) recommend(ctx context.Context, market *models.MarketData) models.Recommendation {
	if e.oracle == nil {
		return Fallback(market.ChangePercent)
	}

	req := models.OracleRequest{
		Market: market,
		Cash:   e.ledger.Cash(),
	}
	if pos, ok := e.ledger.Position(market.Symbol); ok {
		req.HeldQuantity = pos.Quantity
		req.AverageCost = pos.AverageCost
	}

	oracleCtx := ctx
	if e.cfg.OracleTimeout > 0 {
		var cancel context.CancelFunc
		oracleCtx, cancel = context.WithTimeout(ctx, e.cfg.OracleTimeout)
		defer cancel()
	}

	rec, err := e.oracle.Recommend(oracleCtx, req)
	if err != nil {
		log.Printf("Oracle failed for %s, using fallback strategy: %v", market.Symbol, err)
		return Fallback(market.ChangePercent)
	}
	if rec.Source == "" {
		rec.Source = models.SourceOracle
	}
	return normalize(rec)
}

func (e *Engine) act(symbol string, price decimal.Decimal, rec models.Recommendation) (*models.Evaluation, error) {
	eval := &models.Evaluation{
		Symbol:         symbol,
		Recommendation: rec,
		Price:          price,
		Outcome:        models.OutcomeSkipped,
		EvaluatedAt:    e.now(),
	}

	if rec.Action == models.ActionHold {
		eval.SkipReason = models.SkipHold
		return eval, nil
	}
	if rec.Confidence < e.cfg.ConfidenceThreshold {
		eval.SkipReason = models.SkipBelowConfidence
		eval.Detail = fmt.Sprintf("confidence %.2f below threshold %.2f", rec.Confidence, e.cfg.ConfidenceThreshold)
		return eval, nil
	}

	var quantity int64
	switch rec.Action {
	case models.ActionBuy:
		quantity = e.buyQuantity(price, rec.SuggestedQuantity)
		if quantity <= 0 {
			eval.SkipReason = models.SkipInsufficientFunds
			eval.Detail = fmt.Sprintf("cannot afford one share at %s", price.StringFixed(2))
			return eval, nil
		}
	case models.ActionSell:
		pos, ok := e.ledger.Position(symbol)
		if !ok {
			eval.SkipReason = models.SkipNoPosition
			return eval, nil
		}
		quantity = pos.Quantity
	}

	record, err := e.ledger.ExecuteTrade(symbol, rec.Action, quantity, price, rec.Reasoning)
	if err != nil {
		if ledger.IsRejection(err) {
			eval.SkipReason = models.SkipTradeRejected
			eval.Detail = err.Error()
			return eval, nil
		}
		return nil, err
	}

	eval.Outcome = models.OutcomeExecuted
	eval.Executed = true
	eval.Trade = &record
	return eval, nil
}

// buyQuantity sizes a BUY from the current cash. A positive suggestion is
// capped at what is affordable; otherwise a fraction of affordable is used.
func (e *Engine) buyQuantity(price decimal.Decimal, suggested *int64) int64 {
	maxQty := decimal.NewFromInt(math.MaxInt64)
	affordableQty := e.ledger.Cash().Div(price).Floor()
	if affordableQty.GreaterThan(maxQty) {
		affordableQty = maxQty
	}
	affordable := affordableQty.IntPart()
	if affordable <= 0 {
		return 0
	}
	if suggested != nil && *suggested > 0 {
		if *suggested < affordable {
			return *suggested
		}
		return affordable
	}
	qty := affordable / e.cfg.DefaultSizingDivisor
	if qty < 1 {
		qty = 1
	}
	return qty
}

func (e *Engine) publish(ctx context.Context, eval *models.Evaluation) {
	if e.publisher == nil {
		return
	}
	agent := e.ledger.Name()
	if eval.Trade != nil {
		if err := e.publisher.PublishTrade(ctx, agent, *eval.Trade); err != nil {
			log.Printf("Failed to publish trade event for %s: %v", eval.Symbol, err)
		}
	}
	if err := e.publisher.PublishDecision(ctx, agent, eval); err != nil {
		log.Printf("Failed to publish decision event for %s: %v", eval.Symbol, err)
	}
}

// normalize clamps confidence into [0,1] and maps unknown actions to HOLD
func normalize(rec models.Recommendation) models.Recommendation {
	if action, ok := models.ParseAction(string(rec.Action)); ok {
		rec.Action = action
	} else {
		rec.Action = models.ActionHold
	}
	switch {
	case math.IsNaN(rec.Confidence), rec.Confidence < 0:
		rec.Confidence = 0
	case rec.Confidence > 1:
		rec.Confidence = 1
	}
	if rec.Action != models.ActionBuy {
		rec.SuggestedQuantity = nil
	}
	return rec
}
