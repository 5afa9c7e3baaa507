package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

type Config struct {
	Environment  string         `toml:"environment"`
	StartDate    string         `toml:"start_date"`
	RiskFreeRate float64        `toml:"risk_free_rate"`
	WeightStep   int            `toml:"weight_step"`
	Telegram     TelegramConfig `toml:"telegram"`
	Server       ServerConfig   `toml:"server"`
	Storage      StorageConfig  `toml:"storage"`
	Yahoo        YahooConfig    `toml:"yahoo"`
	Forecast     ForecastConfig `toml:"forecast"`
	Logging      LoggingConfig  `toml:"logging"`
	Benchmark    Benchmark      `toml:"benchmark"`
	Universe     []AssetClass   `toml:"universe"`
}

type TelegramConfig struct {
	Token            string `toml:"token"`
	WebhookPublicURL string `toml:"webhook_public_url"`
}

type ServerConfig struct {
	Port string `toml:"port"`
}

// StorageConfig points at the session database. The default DSN is an
// in-memory SQLite database, so sessions never outlive the process.
type StorageConfig struct {
	DSN string `toml:"dsn"`
}

type YahooConfig struct {
	Timeout   string `toml:"timeout"`
	RateLimit int    `toml:"rate_limit"`
	CacheTTL  string `toml:"cache_ttl"`
}

// GetTimeout parses and returns the request timeout
func (c *YahooConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// GetCacheTTL returns how long fetched tables stay cached. Zero means for
// the lifetime of the process.
func (c *YahooConfig) GetCacheTTL() time.Duration {
	if c.CacheTTL == "" || c.CacheTTL == "0" {
		return 0
	}
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil || d < 0 {
		return 12 * time.Hour
	}
	return d
}

type ForecastConfig struct {
	Backend      string `toml:"backend"` // boosted | openai | gemini
	Horizon      int    `toml:"horizon"`
	OpenAIAPIKey string `toml:"openai_api_key"`
	OpenAIModel  string `toml:"openai_model"`
	GeminiAPIKey string `toml:"gemini_api_key"`
	GeminiModel  string `toml:"gemini_model"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

// NewDefaultConfig returns a Config with the built-in asset universe.
func NewDefaultConfig() *Config {
	return &Config{
		Environment:  "development",
		StartDate:    "2018-01-01",
		RiskFreeRate: 0,
		WeightStep:   5,
		Server:       ServerConfig{Port: "9095"},
		Storage:      StorageConfig{DSN: "file:sessions?mode=memory&cache=shared"},
		Yahoo: YahooConfig{
			Timeout:   "30s",
			RateLimit: 5,
			CacheTTL:  "12h",
		},
		Forecast: ForecastConfig{
			Backend:     "boosted",
			Horizon:     20,
			OpenAIModel: "gpt-4o-mini",
			GeminiModel: "gemini-2.0-flash",
		},
		Logging:   LoggingConfig{Level: "info"},
		Benchmark: DefaultBenchmark(),
		Universe:  DefaultUniverse(),
	}
}

// Load reads defaults, then each TOML file in order (missing files are
// skipped), then a .env file, then environment overrides.
func Load(paths ...string) (*Config, error) {
	cfg := NewDefaultConfig()
	fileUniverse := false

	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// A file that declares its own universe replaces the built-in one
		// instead of appending to it.
		var peek struct {
			Universe []AssetClass `toml:"universe"`
		}
		if err := toml.Unmarshal(data, &peek); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		if len(peek.Universe) > 0 {
			cfg.Universe = nil
			fileUniverse = true
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	if !fileUniverse && len(cfg.Universe) == 0 {
		cfg.Universe = DefaultUniverse()
	}

	// .env is optional
	_ = godotenv.Load()

	applyEnvOverrides(cfg)

	if _, err := cfg.Start(); err != nil {
		return nil, err
	}
	if err := ValidateUniverse(cfg.Universe); err != nil {
		return nil, err
	}
	if cfg.WeightStep <= 0 || cfg.WeightStep > 100 {
		cfg.WeightStep = 5
	}
	if cfg.Forecast.Horizon <= 0 {
		cfg.Forecast.Horizon = 20
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if env := os.Getenv("APP_ENV"); env != "" {
		cfg.Environment = env
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("WEBHOOK_PUBLIC_URL"); v != "" {
		cfg.Telegram.WebhookPublicURL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("DB_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Forecast.OpenAIAPIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Forecast.GeminiAPIKey = v
	}
	if v := os.Getenv("FORECAST_BACKEND"); v != "" {
		cfg.Forecast.Backend = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("START_DATE"); v != "" {
		cfg.StartDate = v
	}
	if v := os.Getenv("RISK_FREE_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RiskFreeRate = f
		}
	}
}

// Start returns the parsed start of the analysis window.
func (c *Config) Start() (time.Time, error) {
	t, err := time.Parse("2006-01-02", c.StartDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start_date %q: %w", c.StartDate, err)
	}
	return t, nil
}

// MissingForBot lists the settings the bot binary cannot run without.
func (c *Config) MissingForBot() []string {
	var missing []string
	if c.Telegram.Token == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	switch c.Forecast.Backend {
	case "openai":
		if c.Forecast.OpenAIAPIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	case "gemini":
		if c.Forecast.GeminiAPIKey == "" {
			missing = append(missing, "GEMINI_API_KEY")
		}
	}
	return missing
}
