package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-tiktok-checker/internal/domain"
	"telegram-tiktok-checker/internal/domain/ports/adapter"
	"telegram-tiktok-checker/internal/infra/logging"
)

type cbHandler func(ctx context.Context, chatID int64, data string) error

type prefixCB struct {
	Prefix string
	Fn     cbHandler
}

// Exact-match callbacks. The bot only runs in private chats, so the chat id
// doubles as the Telegram user id.
func (r *RealTelegramBotAdapter) cbRoutes() map[string]cbHandler {
	return map[string]cbHandler{
		"cmd:check": r.checkPromptCBRoute,
		"cmd:bulk":  r.bulkPromptCBRoute,
		"cmd:help":  r.helpCBRoute,
		"cmd:lang":  r.langMenuCBRoute,
	}
}

// Prefix-match callbacks.
func (r *RealTelegramBotAdapter) cbPrefixRoutes() []prefixCB {
	return []prefixCB{
		{Prefix: "lang:", Fn: r.langPickCBRoute},
	}
}

func (r *RealTelegramBotAdapter) handleQuery(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	if query == nil || query.From == nil {
		return errors.New("invalid callback query")
	}

	// Stop the Telegram spinner when we return.
	defer func() { _, _ = r.bot.Request(tgbotapi.NewCallback(query.ID, "")) }()

	chatID := query.From.ID
	if query.Message != nil && query.Message.Chat != nil {
		chatID = query.Message.Chat.ID
	}
	if chatID == 0 {
		return nil
	}

	if !r.allow(ctx, chatID, query.From.ID, "cb", callbackRateLimit) {
		return nil
	}

	data := strings.TrimSpace(query.Data)
	if fn, ok := r.cbRoutes()[data]; ok {
		return fn(ctx, chatID, data)
	}
	for _, pr := range r.cbPrefixRoutes() {
		if strings.HasPrefix(data, pr.Prefix) {
			return pr.Fn(ctx, chatID, data)
		}
	}
	logging.With(ctx, r.log).Warn().Str("data", data).Msg("unknown callback data")
	return nil
}

// mainMenuRows builds the keyboard shown under the welcome message.
func (r *RealTelegramBotAdapter) mainMenuRows(ctx context.Context, tgID int64) [][]adapter.InlineButton {
	tr := r.facade.TranslatorFor(ctx, tgID)
	return [][]adapter.InlineButton{
		{{Text: tr.T("menu.check"), Data: "cmd:check"}},
		{{Text: tr.T("menu.bulk"), Data: "cmd:bulk"}},
		{
			{Text: tr.T("menu.help"), Data: "cmd:help"},
			{Text: tr.T("menu.lang"), Data: "cmd:lang"},
		},
	}
}

func (r *RealTelegramBotAdapter) checkPromptCBRoute(ctx context.Context, chatID int64, _ string) error {
	tr := r.facade.TranslatorFor(ctx, chatID)
	_, err := r.SendMessage(ctx, chatID, tr.T("prompt.check"))
	return err
}

func (r *RealTelegramBotAdapter) bulkPromptCBRoute(ctx context.Context, chatID int64, _ string) error {
	tr := r.facade.TranslatorFor(ctx, chatID)
	_, err := r.SendMessage(ctx, chatID, tr.T("prompt.bulk"))
	return err
}

func (r *RealTelegramBotAdapter) helpCBRoute(ctx context.Context, chatID int64, _ string) error {
	_, err := r.SendMessage(ctx, chatID, r.facade.HandleHelp(ctx, chatID))
	return err
}

func (r *RealTelegramBotAdapter) langMenuCBRoute(ctx context.Context, chatID int64, _ string) error {
	tr := r.facade.TranslatorFor(ctx, chatID)
	return r.SendButtons(ctx, chatID, tr.T("lang.prompt"), r.facade.LanguageKeyboard())
}

func (r *RealTelegramBotAdapter) langPickCBRoute(ctx context.Context, chatID int64, data string) error {
	lang := strings.TrimPrefix(data, "lang:")
	text, err := r.facade.HandleLanguage(ctx, chatID, lang)
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidArgument) {
			logging.With(ctx, r.log).Error().Err(err).Str("lang", lang).Msg("language switch failed")
		}
		text = r.facade.TranslatorFor(ctx, chatID).T("error")
	}
	_, serr := r.SendMessage(ctx, chatID, text)
	return serr
}
