package dashboard

import (
	"context"
	"fmt"
	"strings"

	"portfolioDashboard/internal/config"
	"portfolioDashboard/internal/forecast"
	"portfolioDashboard/internal/gemini"
	"portfolioDashboard/internal/logging"
	"portfolioDashboard/internal/marketdata"
	"portfolioDashboard/internal/openai"
)

// NewForecaster builds the configured forecast backend. LLM backends need
// their API key.
func NewForecaster(ctx context.Context, cfg config.ForecastConfig, logger *logging.Logger) (forecast.Forecaster, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "boosted":
		return forecast.NewBoosted(cfg.Horizon), nil
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("forecast backend openai requires OPENAI_API_KEY")
		}
		return openai.NewForecaster(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.Horizon, logger.Component("openai")), nil
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("forecast backend gemini requires GEMINI_API_KEY")
		}
		return gemini.NewForecaster(ctx, cfg.GeminiAPIKey,
			gemini.WithModel(cfg.GeminiModel),
			gemini.WithHorizon(cfg.Horizon),
			gemini.WithLogger(logger.Component("gemini")),
		)
	default:
		return nil, fmt.Errorf("unknown forecast backend %q", cfg.Backend)
	}
}

// NewFromConfig wires the Yahoo client, the caching fetcher and the
// forecaster into a Service.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*Service, error) {
	client := marketdata.NewClient(cfg.Yahoo, logger)
	fetcher := marketdata.NewFetcher(client, cfg.Yahoo.GetCacheTTL(), logger)
	fc, err := NewForecaster(ctx, cfg.Forecast, logger)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("forecaster", fc.Name()).Msg("forecaster ready")
	return NewService(cfg, fetcher, fc, logger), nil
}
