package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// adminOnly restricts h to the users listed in the admins setting.
func (b *Bot) adminOnly(h HandlerFunc) HandlerFunc {
	return func(ctx context.Context, msg *tgbotapi.Message) error {
		if msg.From == nil || !b.cfg.IsAdmin(msg.From.ID) {
			var user int64
			if msg.From != nil {
				user = msg.From.ID
			}
			b.logger.Warn("Refused admin command", "command", msg.Command(), "user", user)
			return b.reply(ctx, msg.Chat.ID, notAllowedText)
		}
		return h(ctx, msg)
	}
}

func (b *Bot) listCache(ctx context.Context, msg *tgbotapi.Message) error {
	return b.reply(ctx, msg.Chat.ID, cacheList(b.cache.All()))
}

func (b *Bot) resetCache(ctx context.Context, msg *tgbotapi.Message) error {
	n := b.cache.Len()
	if err := b.cache.Clear(); err != nil {
		return fmt.Errorf("clearing file id cache: %w", err)
	}
	b.logger.Info("File id cache cleared", "entries", n, "user", msg.From.ID)
	return b.reply(ctx, msg.Chat.ID, fmt.Sprintf(cacheClearedFmt, n))
}
