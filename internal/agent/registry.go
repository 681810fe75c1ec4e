// Package agent keeps the named paper-trading agents a process serves.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/paper-trader/internal/engine"
	"github.com/trogers1052/paper-trader/internal/ledger"
	"github.com/trogers1052/paper-trader/internal/models"
)

var (
	ErrAgentNotFound = errors.New("agent not found")
	ErrAgentExists   = errors.New("agent already exists")
	ErrInvalidName   = errors.New("agent name must be 1-64 letters, digits, '-' or '_'")
	ErrNoRepository  = errors.New("no state repository configured")
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Repository persists ledger snapshots
type Repository interface {
	Save(ctx context.Context, st models.LedgerState) error
	Load(ctx context.Context, name string) (models.LedgerState, error)
}

// Pricer supplies ledger price lookups bound to a request context
type Pricer interface {
	Lookup(ctx context.Context) ledger.PriceLookup
}

// Agent pairs a ledger with the engine that trades it
type Agent struct {
	Name   string
	Ledger *ledger.Ledger
	Engine *engine.Engine
}

// Deps are the collaborators shared by every agent in a registry. A zero
// Engine config is replaced by engine.DefaultConfig.
type Deps struct {
	Market     engine.MarketDataProvider
	Oracle     engine.Oracle
	Publisher  engine.EventPublisher
	Prices     Pricer
	Repository Repository
	Engine     engine.Config
}

// Registry holds agents by name
type Registry struct {
	mu     sync.RWMutex
	agents map[string]*Agent
	deps   Deps
}

// NewRegistry creates an empty registry
func NewRegistry(deps Deps) *Registry {
	if deps.Engine == (engine.Config{}) {
		deps.Engine = engine.DefaultConfig()
	}
	return &Registry{
		agents: make(map[string]*Agent),
		deps:   deps,
	}
}

func (r *Registry) build(l *ledger.Ledger) *Agent {
	var opts []engine.Option
	if r.deps.Publisher != nil {
		opts = append(opts, engine.WithPublisher(r.deps.Publisher))
	}
	return &Agent{
		Name:   l.Name(),
		Ledger: l,
		Engine: engine.New(l, r.deps.Market, r.deps.Oracle, r.deps.Engine, opts...),
	}
}

// Create registers a new agent with initialBalance in cash
func (r *Registry) Create(name string, initialBalance decimal.Decimal) (*Agent, error) {
	if !namePattern.MatchString(name) {
		return nil, ErrInvalidName
	}
	l, err := ledger.New(name, initialBalance)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.agents[name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrAgentExists, name)
	}
	a := r.build(l)
	r.agents[name] = a
	log.Printf("Created agent %s with balance %s", name, initialBalance.StringFixed(2))
	return a, nil
}

// Get returns the agent registered under name
func (r *Registry) Get(name string) (*Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, name)
	}
	return a, nil
}

// Names lists registered agents in order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Evaluate runs one decision cycle for the named agent
func (r *Registry) Evaluate(ctx context.Context, name, symbol string) (*models.Evaluation, error) {
	a, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return a.Engine.Evaluate(ctx, symbol)
}

// PriceLookup returns a lookup for valuing ledgers within ctx
func (r *Registry) PriceLookup(ctx context.Context) ledger.PriceLookup {
	if r.deps.Prices == nil {
		return func(symbol string) (decimal.Decimal, error) {
			return decimal.Zero, errors.New("no price source configured")
		}
	}
	return r.deps.Prices.Lookup(ctx)
}

// Save persists the named agent's ledger
func (r *Registry) Save(ctx context.Context, name string) error {
	if r.deps.Repository == nil {
		return ErrNoRepository
	}
	a, err := r.Get(name)
	if err != nil {
		return err
	}
	if err := r.deps.Repository.Save(ctx, a.Ledger.Snapshot()); err != nil {
		return fmt.Errorf("failed to save agent %s: %w", name, err)
	}
	log.Printf("Saved state for agent %s", name)
	return nil
}

// Load restores the named agent from the repository, registering it if it
// is not yet known. models.ErrNoState leaves the registry unchanged.
func (r *Registry) Load(ctx context.Context, name string) (*Agent, error) {
	if r.deps.Repository == nil {
		return nil, ErrNoRepository
	}
	if !namePattern.MatchString(name) {
		return nil, ErrInvalidName
	}

	st, err := r.deps.Repository.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	st.Name = name

	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.agents[name]; ok {
		if err := a.Ledger.Restore(st); err != nil {
			return nil, err
		}
		log.Printf("Restored state for agent %s", name)
		return a, nil
	}

	l, err := ledger.FromState(st)
	if err != nil {
		return nil, err
	}
	a := r.build(l)
	r.agents[name] = a
	log.Printf("Loaded agent %s from saved state", name)
	return a, nil
}

// LoadOrCreate loads name from the repository, or creates it with
// initialBalance when nothing was saved
func (r *Registry) LoadOrCreate(ctx context.Context, name string, initialBalance decimal.Decimal) (*Agent, error) {
	if r.deps.Repository != nil {
		a, err := r.Load(ctx, name)
		if err == nil {
			return a, nil
		}
		if !errors.Is(err, models.ErrNoState) {
			return nil, err
		}
	}
	if a, err := r.Get(name); err == nil {
		return a, nil
	}
	return r.Create(name, initialBalance)
}
