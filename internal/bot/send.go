package bot

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/PercevalSA/aoe2-telegram-bot/internal/audio"
)

// sendAudio sends the file at path to the chat, reusing the file id of an
// earlier upload when there is one. An empty path means there was nothing
// to pick from. The file id returned by a fresh upload is recorded; failing
// to record it does not fail the send.
func (b *Bot) sendAudio(ctx context.Context, chatID int64, path string) error {
	if path == "" {
		b.logger.Error("No audio file to send", "chat", chatID)
		return b.reply(ctx, chatID, noAudioText)
	}
	name := filepath.Base(path)

	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatRecordVoice)); err != nil {
		b.logger.Debug("Could not send chat action", "chat", chatID, "error", err)
	}

	if id, ok := b.cache.Get(name); ok {
		b.logger.Debug("Using cached file id", "file", name, "id", id)
		_, err := b.send(ctx, chatID, b.audioConfig(chatID, path, tgbotapi.FileID(id)))
		if err == nil {
			b.logger.Info("Audio sent", "file", name, "cached", true)
			return nil
		}
		// Telegram answers 400 to a file id it no longer knows.
		if apiErr, ok := apiError(err); !ok || apiErr.Code != http.StatusBadRequest {
			return fmt.Errorf("sending %s: %w", name, err)
		}
		b.logger.Warn("Cached file id rejected, uploading again", "file", name, "error", err)
	}

	b.logger.Debug("No cached file id, uploading file", "file", name)
	cfg := b.audioConfig(chatID, path, tgbotapi.FilePath(path))
	if b.cfg.Thumbnail != "" {
		// Thumbnails are ignored unless the audio itself is uploaded.
		cfg.Thumb = tgbotapi.FilePath(b.cfg.Thumbnail)
	}

	sent, err := b.send(ctx, chatID, cfg)
	if err != nil {
		return fmt.Errorf("uploading %s: %w", name, err)
	}
	b.logger.Info("Audio sent", "file", name, "cached", false)

	if sent.Audio == nil || sent.Audio.FileID == "" {
		b.logger.Warn("Upload returned no file id", "file", name)
		return nil
	}
	if err := b.cache.Put(name, sent.Audio.FileID); err != nil {
		b.logger.Error("Could not record file id", "file", name, "error", err)
		return nil
	}
	b.logger.Debug("Cached new file id", "file", name, "id", sent.Audio.FileID)
	return nil
}

func (b *Bot) audioConfig(chatID int64, path string, file tgbotapi.RequestFileData) tgbotapi.AudioConfig {
	cfg := tgbotapi.NewAudio(chatID, file)
	cfg.Title = audio.Stem(path)
	cfg.DisableNotification = !b.cfg.Notify
	return cfg
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) error {
	_, err := b.send(ctx, chatID, tgbotapi.NewMessage(chatID, text))
	return err
}

func (b *Bot) replyMarkdown(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := b.send(ctx, chatID, msg)
	return err
}

// send waits for the chat's rate limiter, then sends c. When Telegram asks
// to slow down the message is sent again once after the requested delay.
func (b *Bot) send(ctx context.Context, chatID int64, c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if err := b.limiter.Wait(ctx, chatID); err != nil {
		return tgbotapi.Message{}, err
	}

	msg, err := b.api.Send(c)
	apiErr, ok := apiError(err)
	if !ok || apiErr.RetryAfter <= 0 {
		return msg, err
	}

	wait := time.Duration(apiErr.RetryAfter) * time.Second
	b.logger.Warn("Throttled by Telegram", "chat", chatID, "retry_after", wait)

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return tgbotapi.Message{}, ctx.Err()
	case <-timer.C:
	}
	return b.api.Send(c)
}
