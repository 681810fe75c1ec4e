package marketdata

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/paper-trader/internal/cache"
	"github.com/trogers1052/paper-trader/internal/ledger"
	"github.com/trogers1052/paper-trader/internal/models"
)

const pricePeriod = "1d"

// PriceCache resolves current prices through a Provider, keeping each
// price for ttl. A nil store or a ttl <= 0 disables caching.
type PriceCache struct {
	provider Provider
	store    cache.Store
	ttl      time.Duration
}

// NewPriceCache creates a price cache over provider
func NewPriceCache(provider Provider, store cache.Store, ttl time.Duration) *PriceCache {
	return &PriceCache{provider: provider, store: store, ttl: ttl}
}

func (c *PriceCache) enabled() bool {
	return c.store != nil && c.ttl > 0
}

// Price returns the current price of symbol
func (c *PriceCache) Price(ctx context.Context, symbol string) (decimal.Decimal, error) {
	symbol = models.NormalizeSymbol(symbol)
	key := "price:" + symbol

	if c.enabled() {
		v, ok, err := c.store.Get(ctx, key)
		if err != nil {
			log.Printf("Price cache read failed for %s: %v", symbol, err)
		} else if ok {
			return v, nil
		}
	}

	md, err := c.provider.MarketData(ctx, symbol, pricePeriod, "1d")
	if err != nil {
		return decimal.Zero, err
	}
	if !usable(md) {
		return decimal.Zero, fmt.Errorf("%w: %s has no price", ErrUnavailable, symbol)
	}

	if c.enabled() {
		if err := c.store.Set(ctx, key, md.CurrentPrice, c.ttl); err != nil {
			log.Printf("Price cache write failed for %s: %v", symbol, err)
		}
	}
	return md.CurrentPrice, nil
}

// Lookup adapts the cache to a ledger.PriceLookup bound to ctx
func (c *PriceCache) Lookup(ctx context.Context) ledger.PriceLookup {
	return func(symbol string) (decimal.Decimal, error) {
		return c.Price(ctx, symbol)
	}
}

// NewPriceLookup returns an uncached ledger.PriceLookup over provider
func NewPriceLookup(ctx context.Context, provider Provider) ledger.PriceLookup {
	return NewPriceCache(provider, nil, 0).Lookup(ctx)
}
