package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/PercevalSA/aoe2-telegram-bot/internal/audio"
)

func (b *Bot) start(ctx context.Context, msg *tgbotapi.Message) error {
	return b.replyMarkdown(ctx, msg.Chat.ID, welcomeText)
}

func (b *Bot) help(ctx context.Context, msg *tgbotapi.Message) error {
	return b.replyMarkdown(ctx, msg.Chat.ID, HelpEnglish)
}

func (b *Bot) aide(ctx context.Context, msg *tgbotapi.Message) error {
	return b.replyMarkdown(ctx, msg.Chat.ID, HelpFrench)
}

func (b *Bot) unknown(ctx context.Context, msg *tgbotapi.Message) error {
	b.logger.Debug("Unknown command", "command", msg.Command(), "chat", msg.Chat.ID)
	return b.reply(ctx, msg.Chat.ID, unknownText)
}

// random returns a handler sending a random file of kind.
func (b *Bot) random(kind audio.Kind) HandlerFunc {
	return func(ctx context.Context, msg *tgbotapi.Message) error {
		path, err := b.library.Random(kind)
		if err != nil && !errors.Is(err, audio.ErrNoFiles) {
			return err
		}
		return b.sendAudio(ctx, msg.Chat.ID, path)
	}
}

func (b *Bot) taunt(ctx context.Context, msg *tgbotapi.Message) error {
	n, err := strconv.Atoi(msg.Command())
	if err != nil {
		return fmt.Errorf("taunt command %q: %w", msg.Command(), err)
	}

	path, err := b.library.Taunt(n)
	if errors.Is(err, audio.ErrNotFound) {
		b.logger.Debug("Taunt not found", "number", n)
		return b.reply(ctx, msg.Chat.ID, tauntNotFound(n))
	}
	if err != nil {
		return err
	}
	return b.sendAudio(ctx, msg.Chat.ID, path)
}

func (b *Bot) civilization(ctx context.Context, msg *tgbotapi.Message) error {
	name := msg.Command()

	path, err := b.library.Civilization(name)
	if errors.Is(err, audio.ErrNotFound) {
		b.logger.Debug("Civilization not found", "name", name)
		suggestions := b.library.Suggest(audio.Civilization, name, 1)
		return b.reply(ctx, msg.Chat.ID, civilizationNotFound(name, suggestions))
	}
	if err != nil {
		return err
	}
	return b.sendAudio(ctx, msg.Chat.ID, path)
}

func (b *Bot) listCivilizations(ctx context.Context, msg *tgbotapi.Message) error {
	names, err := b.library.Names(audio.Civilization)
	if err != nil {
		return err
	}
	return b.reply(ctx, msg.Chat.ID, civilizationList(names))
}

func (b *Bot) listTaunts(ctx context.Context, msg *tgbotapi.Message) error {
	taunts, err := b.library.Taunts()
	if err != nil {
		return err
	}
	return b.reply(ctx, msg.Chat.ID, tauntList(taunts))
}

func (b *Bot) listSounds(ctx context.Context, msg *tgbotapi.Message) error {
	names, err := b.library.Names(audio.Sound)
	if err != nil {
		return err
	}
	return b.reply(ctx, msg.Chat.ID, soundList(names))
}
