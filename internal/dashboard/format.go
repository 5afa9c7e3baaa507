package dashboard

import (
	"fmt"
	"strings"

	"portfolioDashboard/internal/config"
)

// FormatReport renders a report as CommonMark.
func FormatReport(rep Report) string {
	var sb strings.Builder
	sb.WriteString("## Portfolio composition\n\n")
	if len(rep.Composition) == 0 {
		sb.WriteString("No assets held.\n\n")
	}
	for _, h := range rep.Composition {
		fmt.Fprintf(&sb, "- %s: %d%%\n", h.Name, h.Percent)
	}
	if len(rep.Composition) > 0 {
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "Total weight: **%d%%**\n\n", rep.Total)
	if !rep.Complete {
		fmt.Fprintf(&sb, "Adjust the weights so they total 100%% (currently %d%%) to see the analysis.\n", rep.Total)
		return sb.String()
	}

	sb.WriteString("## Performance\n\n")
	fmt.Fprintf(&sb, "| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&sb, "| Annual return | %.2f%% |\n", rep.Performance.AnnualReturn*100)
	fmt.Fprintf(&sb, "| Annual volatility | %.2f%% |\n", rep.Performance.AnnualVolatility*100)
	fmt.Fprintf(&sb, "| Sharpe ratio | %.2f |\n", rep.Performance.SharpeRatio)
	fmt.Fprintf(&sb, "| Max drawdown | %.2f%% |\n", rep.MaxDrawdown*100)
	if rep.Forecast != nil {
		fmt.Fprintf(&sb, "| Forecast (next period) | %.2f%% |\n", rep.Forecast.Total*100)
	}
	sb.WriteString("\n")

	if rep.Forecast != nil && len(rep.Forecast.Assets) > 0 {
		sb.WriteString("### Forecast by asset\n\n")
		for _, a := range rep.Forecast.Assets {
			note := ""
			if a.Err != nil {
				note = " (unavailable)"
			}
			fmt.Fprintf(&sb, "- %s (%d%%): %.2f%%%s\n", a.Name, a.Weight, a.Prediction*100, note)
		}
		sb.WriteString("\n")
	}

	if rep.BenchmarkName != "" {
		sb.WriteString(FormatComparison(rep))
	}
	return sb.String()
}

// FormatComparison renders the benchmark section of a report.
func FormatComparison(rep Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Versus %s\n\n", rep.BenchmarkName)
	c := rep.Comparison
	if c.Empty() {
		sb.WriteString("Benchmark data unavailable.\n")
		return sb.String()
	}
	fmt.Fprintf(&sb, "- My portfolio final value: **%.2f**\n", c.PortfolioFinal)
	fmt.Fprintf(&sb, "- Benchmark final value: **%.2f**\n", c.BenchmarkFinal)
	fmt.Fprintf(&sb, "- Difference: **%+.2f**\n", c.Excess())
	if c.Outperformed {
		sb.WriteString("\nYour portfolio outperformed the market.\n")
	} else {
		sb.WriteString("\nYour portfolio did not beat the market.\n")
	}
	return sb.String()
}

// FormatPortReport renders an ad-hoc portfolio analysis as CommonMark.
func FormatPortReport(rep PortReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Portfolio since %s\n\n", rep.Start.Format("2006-01-02"))
	for _, a := range rep.Request.Assets {
		fmt.Fprintf(&sb, "- %s: %.1f%%\n", a.Symbol, a.Weight*100)
	}
	if rep.Request.CashWeight > 0 {
		fmt.Fprintf(&sb, "- Cash: %.1f%%\n", rep.Request.CashWeight*100)
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "- Annual return: %.2f%%\n", rep.Performance.AnnualReturn*100)
	fmt.Fprintf(&sb, "- Annual volatility: %.2f%%\n", rep.Performance.AnnualVolatility*100)
	fmt.Fprintf(&sb, "- Sharpe ratio: %.2f\n", rep.Performance.SharpeRatio)
	fmt.Fprintf(&sb, "- Max drawdown: %.2f%%\n", rep.MaxDrawdown*100)
	if len(rep.Missing) > 0 {
		fmt.Fprintf(&sb, "\nNo data for %s; held as cash.\n", strings.Join(rep.Missing, ", "))
	}
	return sb.String()
}

// FormatUniverse lists the configured asset classes.
func FormatUniverse(classes []config.AssetClass, bench config.Benchmark) string {
	var sb strings.Builder
	for _, c := range classes {
		fmt.Fprintf(&sb, "### %s\n\n", c.Name)
		for _, a := range c.Assets {
			fmt.Fprintf(&sb, "- %s (`%s`)\n", a.Name, a.Ticker)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "Benchmark: %s (`%s`)\n", bench.Name, bench.Ticker)
	return sb.String()
}
