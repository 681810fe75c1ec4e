package marketdata

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/trogers1052/paper-trader/internal/models"
)

// Chain tries each provider in order and returns the first usable snapshot
type Chain struct {
	providers []Provider
}

// NewChain creates a chain over providers
func NewChain(providers ...Provider) *Chain {
	return &Chain{providers: providers}
}

// MarketData implements Provider
func (c *Chain) MarketData(ctx context.Context, symbol, period, interval string) (*models.MarketData, error) {
	var errs []error
	for _, p := range c.providers {
		md, err := p.MarketData(ctx, symbol, period, interval)
		if err == nil && usable(md) {
			return md, nil
		}
		if err == nil {
			err = errors.New("no price")
		}
		errs = append(errs, err)
		log.Printf("Market data provider %T failed for %s: %v", p, symbol, err)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, symbol, errors.Join(errs...))
}
