package forecast

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"portfolioDashboard/internal/finance"
)

const promptCloses = 60

// SystemPrompt is shared by the LLM-backed forecasters.
const SystemPrompt = "You are a quantitative analyst. Answer with a single decimal number: " +
	"the expected fractional price return (for example 0.012 for +1.2%). No words, no percent sign."

// BuildPrompt describes the recent closes and the latest indicators of one
// asset and asks for the return over horizon trading days.
func BuildPrompt(bars []finance.Bar, horizon int) string {
	closes := make([]float64, 0, len(bars))
	for _, b := range bars {
		if p := b.Price(); !math.IsNaN(p) {
			closes = append(closes, p)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Predict the return over the next %d trading days.\n", horizon)
	from := 0
	if len(closes) > promptCloses {
		from = len(closes) - promptCloses
	}
	sb.WriteString("Recent daily closes (oldest first): ")
	for i, c := range closes[from:] {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.FormatFloat(c, 'f', 4, 64))
	}
	sb.WriteString("\n")
	if rows := BuildFeatures(closes); len(rows) > 0 {
		last := rows[len(rows)-1]
		for i, name := range FeatureNames {
			fmt.Fprintf(&sb, "%s: %.4f\n", name, last.Values[i])
		}
	}
	return sb.String()
}

var decimalRe = regexp.MustCompile(`[-+]?\d*\.?\d+(?:[eE][-+]?\d+)?`)

// ParseReturn extracts the first number of an LLM answer. A trailing percent
// sign scales it down by 100.
func ParseReturn(text string) (float64, error) {
	text = strings.TrimSpace(text)
	loc := decimalRe.FindStringIndex(text)
	if loc == nil {
		return 0, fmt.Errorf("no number in model answer %q", text)
	}
	v, err := strconv.ParseFloat(text[loc[0]:loc[1]], 64)
	if err != nil {
		return 0, fmt.Errorf("parse model answer %q: %w", text, err)
	}
	if strings.HasPrefix(strings.TrimSpace(text[loc[1]:]), "%") {
		v /= 100
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("model answer %q is not finite", text)
	}
	return v, nil
}
