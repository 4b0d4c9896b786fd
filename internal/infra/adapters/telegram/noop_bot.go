package telegram

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"

	"telegram-tiktok-checker/internal/domain/ports/adapter"
)

var _ adapter.TelegramBotAdapter = (*NoopBotAdapter)(nil)

// NoopBotAdapter implements adapter.TelegramBotAdapter for local runs without
// a bot token. It logs instead of talking to Telegram and fakes message ids
// so edit flows still work.
type NoopBotAdapter struct {
	log    *zerolog.Logger
	nextID int32
}

func NewNoopBotAdapter(logger *zerolog.Logger) *NoopBotAdapter {
	noopLog := logger.With().Str("component", "NoopBot").Logger()
	return &NoopBotAdapter{log: &noopLog}
}

func (b *NoopBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	id := int(atomic.AddInt32(&b.nextID, 1))
	b.log.Info().Int64("chat_id", chatID).Int("message_id", id).Str("text", text).Msg("send")
	return id, nil
}

func (b *NoopBotAdapter) EditMessage(ctx context.Context, chatID int64, messageID int, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.log.Info().Int64("chat_id", chatID).Int("message_id", messageID).Str("text", text).Msg("edit")
	return nil
}

func (b *NoopBotAdapter) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.log.Info().Int64("chat_id", chatID).Str("text", text).Interface("rows", rows).Msg("send buttons")
	return nil
}

func (b *NoopBotAdapter) SendDocument(ctx context.Context, chatID int64, filename string, data []byte, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.log.Info().Int64("chat_id", chatID).Str("filename", filename).Int("bytes", len(data)).Msg("send document")
	return nil
}
