package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/paper-trader/internal/agent"
	"github.com/trogers1052/paper-trader/internal/engine"
	"github.com/trogers1052/paper-trader/internal/ledger"
	"github.com/trogers1052/paper-trader/internal/models"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	agents         *agent.Registry
	market         engine.MarketDataProvider
	defaultBalance decimal.Decimal
}

// NewHandler creates a new Handler. defaultBalance is used when a create
// request omits initial_balance.
func NewHandler(agents *agent.Registry, market engine.MarketDataProvider, defaultBalance decimal.Decimal) *Handler {
	return &Handler{
		agents:         agents,
		market:         market,
		defaultBalance: defaultBalance,
	}
}

// ListAgents handles GET /agents
func (h *Handler) ListAgents(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string][]string{"agents": h.agents.Names()})
}

// CreateAgent handles POST /agents
func (h *Handler) CreateAgent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           string           `json:"name"`
		InitialBalance *decimal.Decimal `json:"initial_balance"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	balance := h.defaultBalance
	if req.InitialBalance != nil {
		balance = *req.InitialBalance
	}

	a, err := h.agents.Create(req.Name, balance)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, a.Ledger.PerformanceSnapshot(h.agents.PriceLookup(r.Context())))
}

// GetStatus handles GET /agents/{name}/status
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	a, ok := h.lookupAgent(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, a.Ledger.PerformanceSnapshot(h.agents.PriceLookup(r.Context())))
}

// Decide handles POST /agents/{name}/decide
func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	a, ok := h.lookupAgent(w, r)
	if !ok {
		return
	}

	var req struct {
		Symbol string `json:"symbol"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	eval, err := a.Engine.Evaluate(r.Context(), req.Symbol)
	if err != nil {
		if errors.Is(err, engine.ErrMarketDataUnavailable) {
			http.Error(w, fmt.Sprintf("could not evaluate: %v", err), http.StatusBadGateway)
			return
		}
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, eval)
}

// ExecuteTrade handles POST /agents/{name}/trades
func (h *Handler) ExecuteTrade(w http.ResponseWriter, r *http.Request) {
	a, ok := h.lookupAgent(w, r)
	if !ok {
		return
	}

	var req struct {
		Symbol   string `json:"symbol"`
		Action   string `json:"action"`
		Quantity int64  `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	action, ok := models.ParseAction(req.Action)
	if !ok || action == models.ActionHold {
		http.Error(w, "action must be BUY or SELL", http.StatusBadRequest)
		return
	}

	record, err := a.Engine.ManualTrade(r.Context(), req.Symbol, action, req.Quantity)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, record)
}

// GetPortfolio handles GET /agents/{name}/portfolio
func (h *Handler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	a, ok := h.lookupAgent(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"name":      a.Name,
		"cash":      a.Ledger.Cash(),
		"positions": a.Ledger.Positions(),
		"valuation": a.Ledger.Valuate(h.agents.PriceLookup(r.Context())),
	})
}

// GetHistory handles GET /agents/{name}/history
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	a, ok := h.lookupAgent(w, r)
	if !ok {
		return
	}

	trades := a.Ledger.History()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"trades":      trades,
		"total":       len(trades),
		"performance": a.Ledger.PerformanceHistory(),
	})
}

// SaveAgent handles POST /agents/{name}/save
func (h *Handler) SaveAgent(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if err := h.agents.Save(r.Context(), name); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "saved", "name": name})
}

// LoadAgent handles POST /agents/{name}/load
func (h *Handler) LoadAgent(w http.ResponseWriter, r *http.Request) {
	a, err := h.agents.Load(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, a.Ledger.PerformanceSnapshot(h.agents.PriceLookup(r.Context())))
}

// GetMarketData handles GET /market/{symbol}
func (h *Handler) GetMarketData(w http.ResponseWriter, r *http.Request) {
	symbol := models.NormalizeSymbol(mux.Vars(r)["symbol"])

	period := r.URL.Query().Get("period")
	if period == "" {
		period = "1mo"
	}
	interval := r.URL.Query().Get("interval")
	if interval == "" {
		interval = "1d"
	}

	md, err := h.market.MarketData(r.Context(), symbol, period, interval)
	if err != nil {
		http.Error(w, fmt.Sprintf("market data unavailable for %s", symbol), http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, md)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) lookupAgent(w http.ResponseWriter, r *http.Request) (*agent.Agent, bool) {
	a, err := h.agents.Get(mux.Vars(r)["name"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil, false
	}
	return a, true
}

func respondError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, agent.ErrAgentNotFound), errors.Is(err, models.ErrNoState):
		return http.StatusNotFound
	case errors.Is(err, agent.ErrAgentExists):
		return http.StatusConflict
	case ledger.IsRejection(err), errors.Is(err, ledger.ErrCorruptState):
		return http.StatusUnprocessableEntity
	case errors.Is(err, agent.ErrInvalidName),
		errors.Is(err, ledger.ErrInvalidSymbol),
		errors.Is(err, ledger.ErrInvalidAction),
		errors.Is(err, ledger.ErrInvalidQuantity),
		errors.Is(err, ledger.ErrInvalidPrice),
		errors.Is(err, ledger.ErrInvalidBalance):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrMarketDataUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, agent.ErrNoRepository):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
