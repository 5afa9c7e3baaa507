package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"portfolioDashboard/internal/config"
	"portfolioDashboard/internal/dashboard"
	"portfolioDashboard/internal/logging"
	"portfolioDashboard/internal/server"
	"portfolioDashboard/internal/storage"
	"portfolioDashboard/internal/telegram"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.NewLogger("info").Fatal().Err(err).Msg("config")
	}
	logger := logging.NewLogger(cfg.Logging.Level)
	if missing := cfg.MissingForBot(); len(missing) > 0 {
		logger.Fatal().Str("missing", strings.Join(missing, ", ")).Msg("required settings not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.OpenSQLite(cfg.Storage.DSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("db")
	}
	defer db.Close()
	if err := storage.InitSchema(ctx, db); err != nil {
		logger.Fatal().Err(err).Msg("db schema")
	}
	logger.Info().Str("dsn", cfg.Storage.DSN).Msg("db: schema ensured (sessions, usage)")

	svc, err := dashboard.NewFromConfig(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("dashboard")
	}

	api, err := telegram.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram")
	}
	h := telegram.NewHandlers(api, storage.NewSessionStore(db), storage.NewUsageLog(db), svc, logger)
	bot, err := telegram.NewBot(api, h, cfg.Telegram.WebhookPublicURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram")
	}
	logger.Info().Str("bot", api.Self.UserName).Bool("webhook", bot.UsesWebhook()).Msg("telegram: bot initialized")

	var webhook http.HandlerFunc
	if bot.UsesWebhook() {
		webhook = bot.WebhookHandler
	} else {
		go bot.Poll(ctx)
	}
	mux := server.NewHTTPMux(webhook)
	if err := server.ListenAndServe(ctx, ":"+cfg.Server.Port, mux, logger); err != nil {
		logger.Error().Err(err).Msg("server error")
		os.Exit(1)
	}
}
