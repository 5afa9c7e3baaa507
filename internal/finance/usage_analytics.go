package finance

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"portfolioDashboard/internal/storage"

	"github.com/vicanso/go-charts/v2"
)

// MakeUsageChart renders the share of commands per category as a pie.
func MakeUsageChart(stats map[string]*storage.UsageStats, days int) ([]byte, error) {
	if len(stats) == 0 {
		return nil, fmt.Errorf("no usage data available")
	}

	categories := sortedCategories(stats)
	total := 0
	for _, c := range categories {
		total += stats[c].Count
	}

	values := make([]float64, len(categories))
	labels := make([]string, len(categories))
	for i, c := range categories {
		values[i] = float64(stats[c].Count)
		labels[i] = fmt.Sprintf("%s (%.1f%%)", c, values[i]/float64(total)*100)
	}

	p, err := charts.PieRender(
		values,
		charts.TitleTextOptionFunc(fmt.Sprintf("Command Usage (%d days)", days)),
		charts.LegendOptionFunc(charts.LegendOption{
			Data: labels,
			Top:  charts.PositionTop,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(800),
		charts.HeightOptionFunc(600),
	)
	if err != nil {
		return nil, err
	}
	return p.Bytes()
}

// MakeUsageTimeSeriesChart draws one line of daily command counts per category.
func MakeUsageTimeSeriesChart(series map[string][]storage.TimeSeriesPoint, days int) ([]byte, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("no time series data available")
	}

	seen := map[int64]bool{}
	var stamps []int64
	var names []string
	for category, points := range series {
		names = append(names, category)
		for _, p := range points {
			if !seen[p.Timestamp] {
				seen[p.Timestamp] = true
				stamps = append(stamps, p.Timestamp)
			}
		}
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i] < stamps[j] })
	sort.Strings(names)

	xAxis := make([]string, len(stamps))
	for i, ts := range stamps {
		xAxis[i] = time.Unix(ts, 0).UTC().Format("01/02")
	}

	lines := make([][]float64, len(names))
	for i, category := range names {
		counts := map[int64]int{}
		for _, p := range series[category] {
			counts[p.Timestamp] = p.Count
		}
		line := make([]float64, len(stamps))
		for j, ts := range stamps {
			line[j] = float64(counts[ts])
		}
		lines[i] = line
	}

	p, err := charts.LineRender(
		lines,
		charts.XAxisOptionFunc(charts.XAxisOption{Data: xAxis}),
		charts.TitleTextOptionFunc(fmt.Sprintf("Command Usage Over Time (%d days)", days)),
		charts.LegendOptionFunc(charts.LegendOption{
			Data: names,
			Top:  charts.PositionTop,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(1000),
		charts.HeightOptionFunc(600),
	)
	if err != nil {
		return nil, err
	}
	return p.Bytes()
}

// FormatUsageStatsText summarizes usage per category with the top commands.
func FormatUsageStatsText(stats map[string]*storage.UsageStats, days int) string {
	if len(stats) == 0 {
		return "No usage data available for the specified period."
	}

	categories := sortedCategories(stats)
	total := 0
	for _, c := range categories {
		total += stats[c].Count
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 Usage (%d days)\n\nTotal commands: %d\n\n", days, total)
	for _, category := range categories {
		stat := stats[category]
		fmt.Fprintf(&b, "%s (%d, %.1f%%)\n",
			formatCategoryName(category), stat.Count, float64(stat.Count)/float64(total)*100)

		type cmdCount struct {
			cmd   string
			count int
		}
		var commands []cmdCount
		for cmd, count := range stat.Commands {
			commands = append(commands, cmdCount{cmd, count})
		}
		sort.Slice(commands, func(i, j int) bool {
			if commands[i].count != commands[j].count {
				return commands[i].count > commands[j].count
			}
			return commands[i].cmd < commands[j].cmd
		})
		for i, c := range commands {
			if i >= 5 {
				break
			}
			fmt.Fprintf(&b, "  • %s: %d\n", c.cmd, c.count)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func sortedCategories(stats map[string]*storage.UsageStats) []string {
	out := make([]string, 0, len(stats))
	for c := range stats {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func formatCategoryName(category string) string {
	switch category {
	case "session":
		return "🧺 Portfolio Building"
	case "analysis":
		return "💼 Performance Analysis"
	case "forecast":
		return "🔮 Forecasts"
	case "charts":
		return "📈 Charts"
	default:
		return category
	}
}
