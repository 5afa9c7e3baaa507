package dashboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolioDashboard/internal/config"
	"portfolioDashboard/internal/logging"
)

func TestNewForecaster(t *testing.T) {
	ctx := context.Background()
	log := logging.NewSilentLogger()

	f, err := NewForecaster(ctx, config.ForecastConfig{Backend: "boosted", Horizon: 20}, log)
	require.NoError(t, err)
	assert.Equal(t, "boosted", f.Name())

	f, err = NewForecaster(ctx, config.ForecastConfig{Backend: "openai", OpenAIAPIKey: "k", OpenAIModel: "gpt-x"}, log)
	require.NoError(t, err)
	assert.Equal(t, "openai:gpt-x", f.Name())

	_, err = NewForecaster(ctx, config.ForecastConfig{Backend: "openai"}, log)
	assert.Error(t, err)
	_, err = NewForecaster(ctx, config.ForecastConfig{Backend: "gemini"}, log)
	assert.Error(t, err)
	_, err = NewForecaster(ctx, config.ForecastConfig{Backend: "crystal-ball"}, log)
	assert.Error(t, err)
}
