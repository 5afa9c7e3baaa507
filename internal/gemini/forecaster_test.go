package gemini

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"portfolioDashboard/internal/finance"
)

func TestForecaster_Predict(t *testing.T) {
	var prompt, model string
	f := newForecaster(func(_ context.Context, m, p string) (string, error) {
		model, prompt = m, p
		return "-2.5%", nil
	}, WithModel("gemini-test"), WithHorizon(5))

	bars := []finance.Bar{
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 10, AdjClose: 10},
		{Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Close: 11, AdjClose: 11},
	}
	v, err := f.Predict(context.Background(), bars)
	require.NoError(t, err)
	assert.InDelta(t, -0.025, v, 1e-12)
	assert.Equal(t, "gemini-test", model)
	assert.Contains(t, prompt, "next 5 trading days")
	assert.Contains(t, prompt, "10.0000, 11.0000")
	assert.Equal(t, "gemini:gemini-test", f.Name())
}

func TestExtractTextFromResponse(t *testing.T) {
	_, err := extractTextFromResponse(&genai.GenerateContentResponse{})
	assert.Error(t, err)

	text, err := extractTextFromResponse(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: "0."}, {Text: "01"}}},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "0.01", text)
}
