package oracle

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/trogers1052/paper-trader/internal/models"
)

// BuildPrompt renders the analysis request sent to the model
func BuildPrompt(req models.OracleRequest) string {
	m := req.Market
	var b strings.Builder

	b.WriteString("Analyze the following market data and provide a trading recommendation.\n\n")
	b.WriteString("Market Data:\n")
	fmt.Fprintf(&b, "- Symbol: %s\n", m.Symbol)
	fmt.Fprintf(&b, "- Company: %s\n", orUnknown(m.CompanyName))
	fmt.Fprintf(&b, "- Current Price: $%s\n", m.CurrentPrice.StringFixed(2))
	fmt.Fprintf(&b, "- Previous Close: $%s\n", m.PreviousClose.StringFixed(2))
	fmt.Fprintf(&b, "- Change: %.2f%%\n", m.ChangePercent)
	fmt.Fprintf(&b, "- Volume: %s\n", humanize.Comma(m.Volume))
	fmt.Fprintf(&b, "- 52-Week High: $%s\n", m.High52w.StringFixed(2))
	fmt.Fprintf(&b, "- 52-Week Low: $%s\n", m.Low52w.StringFixed(2))
	fmt.Fprintf(&b, "- Sector: %s\n\n", orUnknown(m.Sector))

	b.WriteString("Current Portfolio Status:\n")
	fmt.Fprintf(&b, "- Available Balance: $%s\n", req.Cash.StringFixed(2))
	fmt.Fprintf(&b, "- Holdings: %d shares\n", req.HeldQuantity)
	if req.HeldQuantity > 0 {
		fmt.Fprintf(&b, "- Average Cost: $%s\n", req.AverageCost.StringFixed(2))
	}

	b.WriteString("\nBased on this data, should I BUY, SELL, or HOLD?\n")
	b.WriteString("Provide your response in the following JSON format:\n")
	b.WriteString(`{
    "action": "BUY/SELL/HOLD",
    "confidence": 0.0-1.0,
    "reasoning": "brief explanation",
    "suggested_quantity": number of shares (if BUY/SELL)
}`)
	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
