package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// API is the part of the Telegram client used to answer commands.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Updater delivers incoming updates by long polling.
type Updater interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Client is everything Run needs from the Telegram client.
type Client interface {
	API
	Updater
}

// ErrUnauthorized is returned by Connect when Telegram rejects the token.
var ErrUnauthorized = errors.New("telegram rejected the bot token")

// Connect creates the Telegram client, retrying with exponential backoff
// while Telegram cannot be reached. A rejected token is not retried.
func Connect(ctx context.Context, token string, logger *log.Logger) (*tgbotapi.BotAPI, error) {
	// The SDK logs its polling errors through the standard logger interface.
	_ = tgbotapi.SetLogger(logger.StandardLog(log.StandardLogOptions{ForceLevel: log.WarnLevel}))

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = time.Minute
	b.MaxElapsedTime = 0

	connect := func() (*tgbotapi.BotAPI, error) {
		api, err := tgbotapi.NewBotAPI(token)
		if err == nil {
			return api, nil
		}
		if apiErr, ok := apiError(err); ok && (apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusNotFound) {
			return nil, backoff.Permanent(fmt.Errorf("%w: %s", ErrUnauthorized, apiErr.Message))
		}
		return nil, err
	}

	notify := func(err error, next time.Duration) {
		logger.Warn("Could not reach Telegram, retrying", "error", err, "in", next)
	}

	api, err := backoff.RetryNotifyWithData(connect, backoff.WithContext(b, ctx), notify)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to telegram: %w", err)
	}

	logger.Info("Authorized", "account", api.Self.UserName)
	return api, nil
}

// apiError unwraps the Telegram error response in err, if any.
func apiError(err error) (*tgbotapi.Error, bool) {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
