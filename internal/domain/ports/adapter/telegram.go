// File: internal/domain/ports/adapter/telegram.go
package adapter

import "context"

type InlineButton struct {
	Text string
	Data string
	URL  string
}

type TelegramBotAdapter interface {
	// SendMessage returns the id of the sent message so callers can edit it later.
	SendMessage(ctx context.Context, telegramID int64, text string) (int, error)
	EditMessage(ctx context.Context, telegramID int64, messageID int, text string) error
	SendButtons(ctx context.Context, telegramID int64, text string, rows [][]InlineButton) error
	// SendDocument uploads data as a named file attachment.
	SendDocument(ctx context.Context, telegramID int64, filename string, data []byte, caption string) error
}
