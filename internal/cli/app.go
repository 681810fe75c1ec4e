package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/trogers1052/paper-trader/internal/agent"
	"github.com/trogers1052/paper-trader/internal/cache"
	"github.com/trogers1052/paper-trader/internal/config"
	"github.com/trogers1052/paper-trader/internal/database"
	"github.com/trogers1052/paper-trader/internal/engine"
	"github.com/trogers1052/paper-trader/internal/kafka"
	"github.com/trogers1052/paper-trader/internal/marketdata"
	"github.com/trogers1052/paper-trader/internal/oracle"
	"github.com/trogers1052/paper-trader/internal/store"
)

// app is the set of collaborators shared by every command
type app struct {
	cfg      *config.Config
	market   marketdata.Provider
	registry *agent.Registry
	producer *kafka.Producer
	closers  []func() error
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	a.market = newMarket(cfg.MarketData)

	prices, err := a.newPriceStore(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	orc, err := newOracle(ctx, cfg.Oracle, cfg.Agent)
	if err != nil {
		a.close()
		return nil, err
	}

	repo, err := a.newRepository()
	if err != nil {
		a.close()
		return nil, err
	}

	deps := agent.Deps{
		Market:     a.market,
		Oracle:     orc,
		Prices:     marketdata.NewPriceCache(a.market, prices, cfg.MarketData.PriceCacheTTL),
		Repository: repo,
		Engine:     engineConfig(cfg.Agent),
	}
	if cfg.Kafka.Enabled {
		a.producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		a.closers = append(a.closers, a.producer.Close)
		deps.Publisher = a.producer
		log.Printf("Publishing events to Kafka topic %s", cfg.Kafka.Topic)
	}

	a.registry = agent.NewRegistry(deps)
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}
	a.closers = nil
}

func (a *app) newPriceStore(ctx context.Context) (cache.Store, error) {
	if !a.cfg.Redis.Enabled {
		return cache.NewMemory(), nil
	}
	r, err := cache.NewRedis(ctx, a.cfg.Redis.Addr, a.cfg.Redis.Password, a.cfg.Redis.DB, a.cfg.Redis.Prefix)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, r.Close)
	log.Printf("Caching prices in Redis at %s", a.cfg.Redis.Addr)
	return r, nil
}

func (a *app) newRepository() (agent.Repository, error) {
	switch a.cfg.Store.Backend {
	case "postgres":
		db, err := database.New(a.cfg.Database.ConnectionString())
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := db.Migrate(a.cfg.Database.MigrationsPath); err != nil {
			return nil, err
		}
		log.Printf("Saving ledger state to PostgreSQL at %s:%s", a.cfg.Database.Host, a.cfg.Database.Port)
		return db, nil
	case "file":
		log.Printf("Saving ledger state to %s", a.cfg.Store.Path)
		return store.NewFileStore(a.cfg.Store.Path), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", a.cfg.Store.Backend)
}

func newMarket(cfg config.MarketDataConfig) marketdata.Provider {
	switch cfg.Source {
	case "yahoo":
		return marketdata.NewYahoo()
	case "simulated":
		return marketdata.NewSynthetic(cfg.Seed)
	}
	return marketdata.NewChain(marketdata.NewYahoo(), marketdata.NewSynthetic(cfg.Seed))
}

// newOracle returns a nil Oracle when no model is configured, which makes
// every engine use the fallback heuristic
func newOracle(ctx context.Context, cfg config.OracleConfig, agentCfg config.AgentConfig) (engine.Oracle, error) {
	switch cfg.Provider {
	case "mistral":
		if cfg.APIKey == "" {
			log.Printf("No Mistral API key configured, using fallback strategy")
			return nil, nil
		}
		model := cfg.Model
		if model == "" {
			model = oracle.DefaultMistralModel
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = oracle.DefaultMistralURL
		}
		log.Printf("Using Mistral model %s", model)
		return oracle.New(oracle.NewMistralClient(cfg.APIKey, model, baseURL, agentCfg.OracleTimeout), cfg.Verbose), nil
	case "openai":
		if cfg.APIKey == "" {
			log.Printf("No OpenAI API key configured, using fallback strategy")
			return nil, nil
		}
		completer, err := oracle.NewOpenAICompleter(ctx, cfg.APIKey, cfg.Model, cfg.BaseURL, agentCfg.OracleTimeout)
		if err != nil {
			return nil, err
		}
		log.Printf("Using OpenAI-compatible model %s", cfg.Model)
		return oracle.New(completer, cfg.Verbose), nil
	}
	log.Printf("No oracle configured, using fallback strategy")
	return nil, nil
}

func engineConfig(cfg config.AgentConfig) engine.Config {
	return engine.Config{
		ConfidenceThreshold:  cfg.ConfidenceThreshold,
		DefaultSizingDivisor: cfg.SizingDivisor,
		Period:               cfg.Period,
		Interval:             cfg.Interval,
		FetchTimeout:         cfg.FetchTimeout,
		OracleTimeout:        cfg.OracleTimeout,
	}
}

// defaultAgent loads the configured agent or creates it with the
// configured balance
func (a *app) defaultAgent(ctx context.Context, name string) (*agent.Agent, error) {
	balance, err := a.cfg.Agent.Balance()
	if err != nil {
		return nil, err
	}
	return a.registry.LoadOrCreate(ctx, name, balance)
}
