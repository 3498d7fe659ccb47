package telegram

import (
	"RetailPulse/internal/core/ports"
	"context"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// NewBotAPI connects to the Bot API with an HTTP client bounded by timeout.
func NewBotAPI(token string, timeout time.Duration) (*tgbotapi.BotAPI, error) {
	return newBotAPI(token, tgbotapi.APIEndpoint, timeout)
}

func newBotAPI(token, endpoint string, timeout time.Duration) (*tgbotapi.BotAPI, error) {
	return tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: timeout})
}

// tgClient implements the BotClientPort.
type tgClient struct {
	api *tgbotapi.BotAPI
	log zerolog.Logger
}

// NewClient creates a new Telegram client adapter.
func NewClient(api *tgbotapi.BotAPI, baseLogger *zerolog.Logger) ports.BotClientPort {
	log := baseLogger.With().Str("component", "tg_client").Logger()
	return &tgClient{api: api, log: log}
}

// SendMessage translates our params into a tgbotapi message. It returns when
// ctx is done even if the Bot API call is still in flight.
func (c *tgClient) SendMessage(ctx context.Context, params ports.SendMessageParams) error {
	msg := tgbotapi.NewMessage(params.ChatID, params.Text)
	msg.ParseMode = params.ParseMode

	done := make(chan error, 1)
	go func() {
		_, err := c.api.Send(msg)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			c.log.Error().Err(err).Int64("chat_id", params.ChatID).Msg("Failed to send message")
			return err
		}
		return nil
	case <-ctx.Done():
		c.log.Warn().Err(ctx.Err()).Int64("chat_id", params.ChatID).Msg("Gave up waiting for Bot API")
		return ctx.Err()
	}
}
