package telegram

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-channel-bot/internal/domain"
)

// SecretHeader carries the secret_token given to setWebhook on every push.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// SetWebhook registers webhookURL with Telegram. The library's WebhookConfig
// predates secret_token, so the call is made with raw params.
func SetWebhook(api BotAPI, webhookURL, secret string) error {
	if u, err := url.Parse(webhookURL); err != nil || u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("%w: webhook url %q must be an absolute https url", domain.ErrConfiguration, webhookURL)
	}
	if secret == "" {
		return fmt.Errorf("%w: webhook secret is empty", domain.ErrConfiguration)
	}
	params := tgbotapi.Params{"url": webhookURL}
	params.AddNonEmpty("secret_token", secret)
	if _, err := api.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("%w: set webhook: %v", domain.ErrPlatform, err)
	}
	return nil
}

func DeleteWebhook(api BotAPI) error {
	if _, err := api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("%w: delete webhook: %v", domain.ErrPlatform, err)
	}
	return nil
}

// WebhookHandler accepts update pushes carrying secret and queues them on d.
// Everything else is rejected with 401, so forged updates never reach the router.
func WebhookHandler(d *Dispatcher, secret string, logger *zerolog.Logger) http.HandlerFunc {
	log := logger.With().Str("component", "TelegramWebhook").Logger()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		got := r.Header.Get(SecretHeader)
		if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			log.Warn().Str("remote", r.RemoteAddr).Msg("webhook request without a valid secret token")
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var up tgbotapi.Update
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&up); err != nil {
			log.Warn().Err(err).Msg("bad webhook payload")
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if !d.Submit(r.Context(), up) {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
