package telegram

import (
	"context"
	"encoding/json"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"portfolioDashboard/internal/logging"
)

type Bot struct {
	api        *tgbotapi.BotAPI
	h          *Handlers
	webhookURL string
	logger     *logging.Logger
}

// NewBotAPI connects to Telegram with the bot token.
func NewBotAPI(token string) (*tgbotapi.BotAPI, error) {
	return tgbotapi.NewBotAPI(token)
}

// NewBot registers the webhook when webhookURL is set; otherwise any stale
// webhook is removed so long polling can be used.
func NewBot(api *tgbotapi.BotAPI, h *Handlers, webhookURL string, logger *logging.Logger) (*Bot, error) {
	b := &Bot{api: api, h: h, webhookURL: webhookURL, logger: logger.Component("bot")}
	if webhookURL != "" {
		webhook, err := tgbotapi.NewWebhook(webhookURL)
		if err != nil {
			return nil, err
		}
		if _, err := api.Request(webhook); err != nil {
			return nil, err
		}
		b.logger.Info().Str("url", webhookURL).Msg("webhook set")
	} else {
		if _, err := api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			return nil, err
		}
		b.logger.Info().Msg("webhook cleared, using long polling")
	}
	return b, nil
}

func (b *Bot) UsesWebhook() bool { return b.webhookURL != "" }

// Webhook HTTP handler (registered at /telegram/webhook)
func (b *Bot) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "bad update", http.StatusBadRequest)
		return
	}
	b.dispatch(update)
	w.WriteHeader(http.StatusOK)
}

// Poll reads updates until ctx is done.
func (b *Bot) Poll(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.dispatch(update)
		}
	}
}

func (b *Bot) dispatch(update tgbotapi.Update) {
	if update.Message == nil {
		b.logger.Debug().Int("update_id", update.UpdateID).Msg("non-message update received")
		return
	}
	b.logger.Info().Int64("chat_id", update.Message.Chat.ID).Str("text", update.Message.Text).Msg("update")
	go b.h.HandleMessage(update.Message)
}
