// Package openai forecasts asset returns with an OpenAI chat model.
package openai

import (
	"context"
	"fmt"

	oa "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"portfolioDashboard/internal/finance"
	"portfolioDashboard/internal/forecast"
	"portfolioDashboard/internal/logging"
)

const DefaultModel = "gpt-4o-mini"

// completeFunc sends one system and one user message and returns the reply.
type completeFunc func(ctx context.Context, model, system, user string) (string, error)

// Forecaster implements forecast.Forecaster by asking the model for a
// single decimal return.
type Forecaster struct {
	complete completeFunc
	model    string
	horizon  int
	logger   *logging.Logger
}

func NewForecaster(apiKey, model string, horizon int, logger *logging.Logger) *Forecaster {
	cli := oa.NewClient(option.WithAPIKey(apiKey))
	complete := func(ctx context.Context, model, system, user string) (string, error) {
		resp, err := cli.Chat.Completions.New(ctx, oa.ChatCompletionNewParams{
			Model: model,
			Messages: []oa.ChatCompletionMessageParamUnion{
				oa.SystemMessage(system),
				oa.UserMessage(user),
			},
			MaxTokens:   oa.Int(16),
			Temperature: oa.Float(0),
		})
		if err != nil {
			return "", fmt.Errorf("OpenAI API error: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("no response from OpenAI")
		}
		return resp.Choices[0].Message.Content, nil
	}
	return newForecaster(complete, model, horizon, logger)
}

func newForecaster(complete completeFunc, model string, horizon int, logger *logging.Logger) *Forecaster {
	if model == "" {
		model = DefaultModel
	}
	if horizon <= 0 {
		horizon = 20
	}
	if logger == nil {
		logger = logging.NewSilentLogger()
	}
	return &Forecaster{complete: complete, model: model, horizon: horizon, logger: logger}
}

func (f *Forecaster) Name() string { return "openai:" + f.model }

func (f *Forecaster) Predict(ctx context.Context, bars []finance.Bar) (float64, error) {
	if len(bars) == 0 {
		return 0, nil
	}
	answer, err := f.complete(ctx, f.model, forecast.SystemPrompt, forecast.BuildPrompt(bars, f.horizon))
	if err != nil {
		return 0, err
	}
	f.logger.Debug().Str("model", f.model).Str("answer", answer).Msg("forecast answer")
	return forecast.ParseReturn(answer)
}
