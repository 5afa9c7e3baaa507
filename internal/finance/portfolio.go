package finance

import (
	"fmt"
	"strconv"
	"strings"
)

// WeightedAsset is one holding of an ad-hoc portfolio.
type WeightedAsset struct {
	Symbol string
	Weight float64 // fraction of capital, 0..1
}

// PortfolioRequest is a parsed /port command. Capital not assigned to an
// asset is held as cash earning nothing.
type PortfolioRequest struct {
	Assets     []WeightedAsset
	CashWeight float64
	Window     string
}

func (p PortfolioRequest) Symbols() []string {
	out := make([]string, len(p.Assets))
	for i, a := range p.Assets {
		out[i] = a.Symbol
	}
	return out
}

// ParsePortfolioCommand parses a weighted portfolio command string.
// Format: /port SPY 0.5 AAPL 25% 1y
// The trailing window is optional and defaults to 1y.
func ParsePortfolioCommand(input string) (PortfolioRequest, error) {
	parts := strings.Fields(input)
	// The command token may carry a bot mention, as in /port@MyBot.
	if len(parts) > 0 && strings.HasPrefix(parts[0], "/port") {
		parts = parts[1:]
	}
	if len(parts) < 2 {
		return PortfolioRequest{}, fmt.Errorf("insufficient arguments: need at least symbol weight")
	}

	req := PortfolioRequest{Window: "1y"}
	if len(parts)%2 == 1 {
		req.Window = strings.ToLower(parts[len(parts)-1])
		parts = parts[:len(parts)-1]
	}

	seen := make(map[string]bool)
	total := 0.0
	for i := 0; i < len(parts); i += 2 {
		symbol := strings.ToUpper(strings.TrimSpace(parts[i]))
		if symbol == "" {
			return PortfolioRequest{}, fmt.Errorf("empty symbol at position %d", i/2+1)
		}
		if seen[symbol] {
			return PortfolioRequest{}, fmt.Errorf("duplicate symbol: %s", symbol)
		}
		seen[symbol] = true

		weight, err := parseWeight(parts[i+1])
		if err != nil {
			return PortfolioRequest{}, fmt.Errorf("invalid weight '%s' for symbol %s: %w", parts[i+1], symbol, err)
		}
		if weight < 0 {
			return PortfolioRequest{}, fmt.Errorf("weight for %s is negative; short positions are not supported", symbol)
		}
		if weight > 1 {
			return PortfolioRequest{}, fmt.Errorf("weight %.3f for symbol %s exceeds 1.0", weight, symbol)
		}

		req.Assets = append(req.Assets, WeightedAsset{Symbol: symbol, Weight: weight})
		total += weight
	}

	if total > 1+1e-9 {
		return PortfolioRequest{}, fmt.Errorf("total weight %.3f exceeds 1.0", total)
	}
	req.CashWeight = 1 - total
	if req.CashWeight < 1e-9 {
		req.CashWeight = 0
	}

	if _, err := ParseWindow(req.Window); err != nil {
		return PortfolioRequest{}, err
	}
	return req, nil
}

// parseWeight accepts a fraction ("0.25") or a percentage ("25%").
func parseWeight(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if pct, ok := strings.CutSuffix(s, "%"); ok {
		v, err := strconv.ParseFloat(pct, 64)
		if err != nil {
			return 0, err
		}
		return v / 100, nil
	}
	return strconv.ParseFloat(s, 64)
}
