package oracle

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/trogers1052/paper-trader/internal/models"
)

var (
	// ErrMalformedResponse means the model answered but no recommendation
	// could be read from the reply
	ErrMalformedResponse = errors.New("malformed oracle response")
	// ErrEmptyResponse means the model returned no content
	ErrEmptyResponse = errors.New("empty oracle response")
)

const systemPrompt = "You are an expert trading analyst. Answer only with the requested JSON object."

// Completer sends a system and user prompt to a chat model and returns the
// text of its reply
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// LLM is a recommendation provider backed by a chat model
type LLM struct {
	completer Completer
	verbose   bool
}

// New creates an LLM oracle. With verbose set the raw model reply is logged.
func New(c Completer, verbose bool) *LLM {
	return &LLM{completer: c, verbose: verbose}
}

// Recommend asks the model for a BUY, SELL or HOLD call on req.Market
func (o *LLM) Recommend(ctx context.Context, req models.OracleRequest) (models.Recommendation, error) {
	if req.Market == nil {
		return models.Recommendation{}, errors.New("no market data in request")
	}

	reply, err := o.completer.Complete(ctx, systemPrompt, BuildPrompt(req))
	if err != nil {
		return models.Recommendation{}, fmt.Errorf("completion for %s: %w", req.Market.Symbol, err)
	}
	if o.verbose {
		log.Printf("Oracle raw response for %s: %s", req.Market.Symbol, reply)
	}

	rec, err := ParseResponse(reply)
	if err != nil {
		return models.Recommendation{}, err
	}
	rec.Source = models.SourceOracle
	rec.RawResponse = reply
	return rec, nil
}
