package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-tiktok-checker/internal/domain"
	"telegram-tiktok-checker/internal/infra/logging"
)

// handleText runs a single availability check for a bare username message.
func (r *RealTelegramBotAdapter) handleText(ctx context.Context, msg *tgbotapi.Message) error {
	text := strings.TrimSpace(msg.Text)
	if text == "" || strings.HasPrefix(text, "/") {
		return nil
	}

	username := strings.TrimSpace(strings.TrimLeft(text, "@"))
	if username == "" {
		return nil
	}
	// Multi-word messages check the first word only.
	if fields := strings.Fields(username); len(fields) > 0 {
		username = fields[0]
	}

	tgID := msg.From.ID
	if !r.allow(ctx, msg.Chat.ID, tgID, "message", messageRateLimit) {
		return nil
	}
	logging.With(ctx, r.log).Info().Str("username", username).Msg("single check requested")

	tr := r.facade.TranslatorFor(ctx, tgID)
	statusID, err := r.SendMessage(ctx, msg.Chat.ID, tr.T("checking", username))
	if err != nil {
		return err
	}

	reply, err := r.facade.HandleCheck(ctx, tgID, username)
	if err != nil {
		return r.EditMessage(ctx, msg.Chat.ID, statusID, tr.T("error"))
	}
	if err := r.EditMessage(ctx, msg.Chat.ID, statusID, reply); err != nil {
		// The status message may be gone, fall back to a fresh one.
		_, serr := r.SendMessage(ctx, msg.Chat.ID, reply)
		return serr
	}
	return nil
}

// handleDocument accepts a .txt username list and queues a bulk run.
func (r *RealTelegramBotAdapter) handleDocument(ctx context.Context, msg *tgbotapi.Message) error {
	tgID := msg.From.ID
	if !r.allow(ctx, msg.Chat.ID, tgID, "document", messageRateLimit) {
		return nil
	}
	tr := r.facade.TranslatorFor(ctx, tgID)
	log := logging.With(ctx, r.log)

	doc := msg.Document
	if doc.FileName == "" || !strings.HasSuffix(strings.ToLower(doc.FileName), ".txt") {
		_, err := r.SendMessage(ctx, msg.Chat.ID, tr.T("invalid_file_type"))
		return err
	}
	log.Info().Str("file", doc.FileName).Msg("bulk file uploaded")

	data, err := r.downloadFile(ctx, doc.FileID)
	if err != nil {
		log.Error().Err(err).Str("file", doc.FileName).Msg("file download failed")
		_, serr := r.SendMessage(ctx, msg.Chat.ID, tr.T("file_error"))
		return serr
	}

	names, err := r.facade.CheckUC.ParseBulkFile(data)
	if err != nil {
		_, serr := r.SendMessage(ctx, msg.Chat.ID, r.facade.LocalizeBulkError(tr, err))
		return serr
	}

	statusID, err := r.SendMessage(ctx, msg.Chat.ID, tr.T("checking_bulk", len(names)))
	if err != nil {
		return err
	}
	if r.bulk == nil {
		return r.EditMessage(ctx, msg.Chat.ID, statusID, tr.T("error"))
	}

	job := BulkJob{
		ChatID:          msg.Chat.ID,
		RequestedBy:     tgID,
		StatusMessageID: statusID,
		Usernames:       names,
	}
	if err := r.bulk.Submit(ctx, job); err != nil {
		if errors.Is(err, domain.ErrBulkActive) {
			return r.EditMessage(ctx, msg.Chat.ID, statusID, tr.T("bulk_active"))
		}
		log.Error().Err(err).Msg("bulk submit failed")
		return r.EditMessage(ctx, msg.Chat.ID, statusID, tr.T("error"))
	}
	return nil
}
