package config

import (
	"fmt"
	"strings"
)

// Asset is one tradeable instrument offered to the user.
type Asset struct {
	Name   string `toml:"name"`
	Ticker string `toml:"ticker"`
}

// AssetClass groups assets for display. Order in the config is kept.
type AssetClass struct {
	Name   string  `toml:"name"`
	Assets []Asset `toml:"assets"`
}

// Benchmark is the market index the portfolio is compared against.
type Benchmark struct {
	Name   string `toml:"name"`
	Ticker string `toml:"ticker"`
}

func DefaultBenchmark() Benchmark {
	return Benchmark{Name: "S&P 500", Ticker: "^GSPC"}
}

func DefaultUniverse() []AssetClass {
	return []AssetClass{
		{
			Name: "Korean Equities",
			Assets: []Asset{
				{Name: "Samsung Electronics", Ticker: "005930.KS"},
				{Name: "SK Hynix", Ticker: "000660.KS"},
				{Name: "NAVER", Ticker: "035420.KS"},
				{Name: "Hyundai Motor", Ticker: "005380.KS"},
				{Name: "LG Chem", Ticker: "051910.KS"},
				{Name: "Celltrion", Ticker: "068270.KS"},
				{Name: "Samsung Biologics", Ticker: "207940.KS"},
				{Name: "Kia", Ticker: "000270.KS"},
				{Name: "POSCO Holdings", Ticker: "005490.KS"},
				{Name: "SK Biopharm", Ticker: "326030.KS"},
			},
		},
		{
			Name: "Global Equities",
			Assets: []Asset{
				{Name: "Apple", Ticker: "AAPL"},
				{Name: "NVIDIA", Ticker: "NVDA"},
				{Name: "Tesla", Ticker: "TSLA"},
				{Name: "Microsoft", Ticker: "MSFT"},
				{Name: "Amazon", Ticker: "AMZN"},
				{Name: "Alphabet (Google)", Ticker: "GOOGL"},
			},
		},
		{
			Name: "Bonds",
			Assets: []Asset{
				{Name: "US Long-Term Treasury", Ticker: "TLT"},
				{Name: "US Corporate Bonds", Ticker: "LQD"},
			},
		},
		{
			Name: "Commodities & Crypto",
			Assets: []Asset{
				{Name: "Gold", Ticker: "GLD"},
				{Name: "Bitcoin", Ticker: "BTC-USD"},
			},
		},
	}
}

// ValidateUniverse rejects empty universes and duplicate names or tickers.
// Display names become table columns, so they must be unique.
func ValidateUniverse(classes []AssetClass) error {
	names := map[string]bool{}
	tickers := map[string]bool{}
	count := 0
	for _, class := range classes {
		for _, a := range class.Assets {
			name := strings.TrimSpace(a.Name)
			ticker := strings.TrimSpace(a.Ticker)
			if name == "" || ticker == "" {
				return fmt.Errorf("asset class %q: asset needs both name and ticker", class.Name)
			}
			if names[name] {
				return fmt.Errorf("duplicate asset name %q", name)
			}
			if tickers[ticker] {
				return fmt.Errorf("duplicate ticker %q", ticker)
			}
			names[name] = true
			tickers[ticker] = true
			count++
		}
	}
	if count == 0 {
		return fmt.Errorf("asset universe is empty")
	}
	return nil
}

// Assets flattens the universe in configuration order.
func Assets(classes []AssetClass) []Asset {
	var out []Asset
	for _, class := range classes {
		out = append(out, class.Assets...)
	}
	return out
}

// Tickers returns every ticker in configuration order.
func Tickers(classes []AssetClass) []string {
	var out []string
	for _, a := range Assets(classes) {
		out = append(out, a.Ticker)
	}
	return out
}

// TickerNames maps ticker to display name.
func TickerNames(classes []AssetClass) map[string]string {
	out := map[string]string{}
	for _, a := range Assets(classes) {
		out[a.Ticker] = a.Name
	}
	return out
}

// ClassOf returns the class holding the named asset, or "" when unknown.
func ClassOf(classes []AssetClass, name string) string {
	for _, class := range classes {
		for _, a := range class.Assets {
			if a.Name == name {
				return class.Name
			}
		}
	}
	return ""
}

// FindAsset looks an asset up by display name or ticker, case-insensitively.
func FindAsset(classes []AssetClass, key string) (Asset, bool) {
	key = strings.TrimSpace(key)
	for _, a := range Assets(classes) {
		if strings.EqualFold(a.Name, key) || strings.EqualFold(a.Ticker, key) {
			return a, true
		}
	}
	return Asset{}, false
}
