// Package bot answers Telegram commands with Age of Empires II audio clips.
package bot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"github.com/PercevalSA/aoe2-telegram-bot/internal/audio"
	"github.com/PercevalSA/aoe2-telegram-bot/internal/config"
	"github.com/PercevalSA/aoe2-telegram-bot/internal/fileid"
)

// maxConcurrentUpdates bounds the number of commands handled at once.
const maxConcurrentUpdates = 8

// Bot dispatches command messages to their handlers.
type Bot struct {
	api     API
	library *audio.Library
	cache   *fileid.Cache
	cfg     config.Config
	logger  *log.Logger
	limiter *chatLimiter

	mu       sync.RWMutex
	commands map[string]HandlerFunc
}

// New returns a bot answering through api with files from library. The
// command table is built right away.
func New(api API, library *audio.Library, cache *fileid.Cache, cfg config.Config) *Bot {
	b := &Bot{
		api:     api,
		library: library,
		cache:   cache,
		cfg:     cfg,
		logger:  log.Default().WithPrefix("bot"),
		limiter: newChatLimiter(cfg.RateLimit, cfg.Burst),
	}

	if cfg.Thumbnail != "" {
		if _, err := os.Stat(cfg.Thumbnail); err != nil {
			b.logger.Warn("Ignoring unusable thumbnail", "path", cfg.Thumbnail, "error", err)
			b.cfg.Thumbnail = ""
		}
	}

	b.Refresh()
	return b
}

// Handle answers one update. Updates that are not commands are ignored.
// Handler errors are logged, never returned.
func (b *Bot) Handle(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil || !msg.IsCommand() {
		return
	}

	name := msg.Command()
	b.logger.Debug("Command received", "command", name, "chat", msg.Chat.ID)

	if err := b.lookup(name)(ctx, msg); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			b.logger.Debug("Command interrupted", "command", name, "error", err)
			return
		}
		b.logger.Error("Command failed", "command", name, "chat", msg.Chat.ID, "error", err)
	}
}

// PublishCommands sets the command menu shown by Telegram clients.
func (b *Bot) PublishCommands() error {
	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(menu...)); err != nil {
		return fmt.Errorf("unable to publish commands: %w", err)
	}
	return nil
}

// Run loads the file id cache if needed, then answers updates until ctx is
// done. When watching is enabled the command table follows changes to the
// audio directory.
func (b *Bot) Run(ctx context.Context, updater Updater) error {
	if !b.cache.Loaded() {
		if err := b.cache.Load(); err != nil {
			return fmt.Errorf("loading file id cache: %w", err)
		}
	}
	b.logger.Info("File id cache loaded", "entries", b.cache.Len(), "path", b.cache.Path())

	if err := b.PublishCommands(); err != nil {
		b.logger.Warn("Could not publish command menu", "error", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	if b.cfg.Watch {
		g.Go(func() error {
			if err := b.library.Watch(ctx, b.Refresh); err != nil {
				b.logger.Warn("Not watching audio directory", "error", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = int(b.cfg.PollTimeout.Seconds())
		updates := updater.GetUpdatesChan(u)
		b.logger.Info("Starting polling...")

		var handlers errgroup.Group
		handlers.SetLimit(maxConcurrentUpdates)
		defer handlers.Wait() //nolint:errcheck

		for {
			select {
			case <-ctx.Done():
				updater.StopReceivingUpdates()
				b.logger.Info("Stopped polling")
				return nil
			case update, ok := <-updates:
				if !ok {
					return errors.New("update channel closed")
				}
				handlers.Go(func() error {
					b.Handle(ctx, update)
					return nil
				})
			}
		}
	})

	return g.Wait()
}
