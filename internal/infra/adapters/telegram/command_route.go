package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-tiktok-checker/internal/infra/logging"
	"telegram-tiktok-checker/internal/infra/metrics"
)

type commandHandler func(ctx context.Context, msg *tgbotapi.Message) error

// commandRoutes defines all available bot commands and their handlers.
// /stats is gated inside the facade so non-admins get a localized denial.
func (r *RealTelegramBotAdapter) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"start": r.handleStartCommand,
		"help":  r.handleHelpCommand,
		"lang":  r.handleLangCommand,
		"stats": r.handleStatsCommand,
	}
}

func (r *RealTelegramBotAdapter) dispatchCommand(ctx context.Context, msg *tgbotapi.Message) error {
	cmd := msg.Command()
	metrics.IncTelegramCommand("/" + cmd)
	if !r.allow(ctx, msg.Chat.ID, msg.From.ID, "/"+cmd, messageRateLimit) {
		return nil
	}
	if fn, ok := r.commandRoutes()[cmd]; ok {
		return fn(ctx, msg)
	}
	// Unknown slash commands are ignored, matching plain-text handling.
	return nil
}

func (r *RealTelegramBotAdapter) handleStartCommand(ctx context.Context, msg *tgbotapi.Message) error {
	tgID := msg.From.ID
	log := logging.With(ctx, r.log)
	log.Info().Msg("user started the bot")

	text, err := r.facade.HandleStart(ctx, tgID, msg.From.UserName)
	if err != nil {
		log.Error().Err(err).Msg("start failed")
		tr := r.facade.TranslatorFor(ctx, tgID)
		_, serr := r.SendMessage(ctx, msg.Chat.ID, tr.T("error"))
		return serr
	}
	if err := r.SendButtons(ctx, msg.Chat.ID, text, r.mainMenuRows(ctx, tgID)); err != nil {
		// Keyboard delivery failing should not hide the welcome text.
		_, serr := r.SendMessage(ctx, msg.Chat.ID, text)
		return serr
	}
	return nil
}

func (r *RealTelegramBotAdapter) handleHelpCommand(ctx context.Context, msg *tgbotapi.Message) error {
	_, err := r.SendMessage(ctx, msg.Chat.ID, r.facade.HandleHelp(ctx, msg.From.ID))
	return err
}

func (r *RealTelegramBotAdapter) handleLangCommand(ctx context.Context, msg *tgbotapi.Message) error {
	tr := r.facade.TranslatorFor(ctx, msg.From.ID)
	return r.SendButtons(ctx, msg.Chat.ID, tr.T("lang.prompt"), r.facade.LanguageKeyboard())
}

func (r *RealTelegramBotAdapter) handleStatsCommand(ctx context.Context, msg *tgbotapi.Message) error {
	text, err := r.facade.HandleStats(ctx, msg.From.ID)
	if err != nil {
		logging.With(ctx, r.log).Error().Err(err).Msg("stats failed")
		tr := r.facade.TranslatorFor(ctx, msg.From.ID)
		text = tr.T("error")
	}
	_, serr := r.SendMessage(ctx, msg.Chat.ID, text)
	return serr
}
