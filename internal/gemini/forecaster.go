// Package gemini forecasts asset returns with the Google Gemini API.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"portfolioDashboard/internal/finance"
	"portfolioDashboard/internal/forecast"
	"portfolioDashboard/internal/logging"
)

const DefaultModel = "gemini-2.0-flash"

type generateFunc func(ctx context.Context, model, prompt string) (string, error)

// Forecaster implements forecast.Forecaster on top of Gemini.
type Forecaster struct {
	generate generateFunc
	model    string
	horizon  int
	logger   *logging.Logger
}

// ClientOption configures the forecaster
type ClientOption func(*Forecaster)

// WithModel sets the model to use
func WithModel(model string) ClientOption {
	return func(f *Forecaster) {
		if model != "" {
			f.model = model
		}
	}
}

// WithHorizon sets the forecast horizon in trading days
func WithHorizon(days int) ClientOption {
	return func(f *Forecaster) {
		if days > 0 {
			f.horizon = days
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *logging.Logger) ClientOption {
	return func(f *Forecaster) {
		f.logger = logger
	}
}

// NewForecaster creates a Gemini-backed forecaster
func NewForecaster(ctx context.Context, apiKey string, opts ...ClientOption) (*Forecaster, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	generate := func(ctx context.Context, model, prompt string) (string, error) {
		result, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
		if err != nil {
			return "", fmt.Errorf("failed to generate content: %w", err)
		}
		return extractTextFromResponse(result)
	}
	return newForecaster(generate, opts...), nil
}

func newForecaster(generate generateFunc, opts ...ClientOption) *Forecaster {
	f := &Forecaster{
		generate: generate,
		model:    DefaultModel,
		horizon:  20,
		logger:   logging.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Forecaster) Name() string { return "gemini:" + f.model }

func (f *Forecaster) Predict(ctx context.Context, bars []finance.Bar) (float64, error) {
	if len(bars) == 0 {
		return 0, nil
	}
	f.logger.Debug().Str("model", f.model).Msg("Generating forecast")

	prompt := forecast.SystemPrompt + "\n\n" + forecast.BuildPrompt(bars, f.horizon)
	answer, err := f.generate(ctx, f.model, prompt)
	if err != nil {
		return 0, err
	}
	return forecast.ParseReturn(answer)
}

// extractTextFromResponse extracts text from a generate content response
func extractTextFromResponse(result *genai.GenerateContentResponse) (string, error) {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil ||
		len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}

	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}
