package oracle

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/trogers1052/paper-trader/internal/models"
)

const (
	textConfidence   = 0.6
	textReasoningLen = 200
)

type jsonDecision struct {
	Action            string      `json:"action"`
	Confidence        json.Number `json:"confidence"`
	Reasoning         string      `json:"reasoning"`
	SuggestedQuantity json.Number `json:"suggested_quantity"`
}

// ParseResponse reads a recommendation from a model reply. A reply that
// contains a JSON object is decoded from its first "{" to its last "}";
// otherwise the text is scanned for BUY, SELL or HOLD.
func ParseResponse(reply string) (models.Recommendation, error) {
	text := strings.TrimSpace(reply)
	if text == "" {
		return models.Recommendation{}, fmt.Errorf("%w: %w", ErrMalformedResponse, ErrEmptyResponse)
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return parseJSON(text[start : end+1])
	}
	return parseText(text)
}

func parseJSON(body string) (models.Recommendation, error) {
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()

	var raw jsonDecision
	if err := dec.Decode(&raw); err != nil {
		return models.Recommendation{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	action, ok := models.ParseAction(raw.Action)
	if !ok {
		return models.Recommendation{}, fmt.Errorf("%w: unknown action %q", ErrMalformedResponse, raw.Action)
	}

	rec := models.Recommendation{
		Action:    action,
		Reasoning: raw.Reasoning,
	}
	if raw.Confidence == "" {
		return models.Recommendation{}, fmt.Errorf("%w: no confidence", ErrMalformedResponse)
	}
	conf, err := raw.Confidence.Float64()
	if err != nil {
		return models.Recommendation{}, fmt.Errorf("%w: confidence %q", ErrMalformedResponse, raw.Confidence)
	}
	rec.Confidence = conf

	if raw.SuggestedQuantity != "" {
		if q, err := raw.SuggestedQuantity.Float64(); err == nil && q >= 1 {
			n := int64(math.MaxInt64)
			// float64(MaxInt64) rounds up to 2^63, which does not fit
			if q < math.MaxInt64 {
				n = int64(math.Floor(q))
			}
			rec.SuggestedQuantity = &n
		}
	}
	return rec, nil
}

func parseText(text string) (models.Recommendation, error) {
	upper := strings.ToUpper(text)

	var action models.Action
	switch {
	case strings.Contains(upper, string(models.ActionBuy)):
		action = models.ActionBuy
	case strings.Contains(upper, string(models.ActionSell)):
		action = models.ActionSell
	case strings.Contains(upper, string(models.ActionHold)):
		action = models.ActionHold
	default:
		return models.Recommendation{}, fmt.Errorf("%w: no action in reply", ErrMalformedResponse)
	}

	one := int64(1)
	return models.Recommendation{
		Action:            action,
		Confidence:        textConfidence,
		Reasoning:         truncate(text, textReasoningLen),
		SuggestedQuantity: &one,
	}, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
