package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"telegram-tiktok-checker/internal/domain"
	"telegram-tiktok-checker/internal/domain/model"
	"telegram-tiktok-checker/internal/domain/ports/adapter"
	"telegram-tiktok-checker/internal/infra/i18n"
	"telegram-tiktok-checker/internal/usecase"
)

// BotFacade composes usecases into high-level bot commands. Methods return
// ready-to-send strings (Telegram HTML) so the Telegram adapter stays a thin
// transport and rendering lives in one place.
type BotFacade struct {
	UserUC  usecase.UserUseCase
	CheckUC usecase.CheckUseCase
	StatsUC usecase.StatsUseCase

	bundle  *i18n.Bundle
	admins  map[int64]struct{}
	bulkMax int
}

func NewBotFacade(
	userUC usecase.UserUseCase,
	checkUC usecase.CheckUseCase,
	statsUC usecase.StatsUseCase,
	bundle *i18n.Bundle,
	adminIDs []int64,
	bulkMax int,
) *BotFacade {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &BotFacade{
		UserUC:  userUC,
		CheckUC: checkUC,
		StatsUC: statsUC,
		bundle:  bundle,
		admins:  admins,
		bulkMax: bulkMax,
	}
}

// IsAdmin reports whether the Telegram account may use admin commands.
func (b *BotFacade) IsAdmin(tgID int64) bool {
	_, ok := b.admins[tgID]
	return ok
}

// BulkMax is the per-file username limit shown in error messages.
func (b *BotFacade) BulkMax() int { return b.bulkMax }

// TranslatorFor resolves the reply language for a Telegram account. Unknown
// accounts and unknown languages fall back to the default locale.
func (b *BotFacade) TranslatorFor(ctx context.Context, tgID int64) *i18n.Translator {
	u, err := b.UserUC.GetByTelegramID(ctx, tgID)
	if err != nil || u.Language == "" {
		return b.bundle.Pick(b.bundle.Default())
	}
	return b.bundle.Pick(u.Language)
}

// HandleStart registers the user on first contact and returns the welcome text.
func (b *BotFacade) HandleStart(ctx context.Context, tgID int64, username string) (string, error) {
	if _, err := b.UserUC.RegisterOrFetch(ctx, tgID, username); err != nil {
		return "", fmt.Errorf("register/fetch user: %w", err)
	}
	return b.TranslatorFor(ctx, tgID).T("start"), nil
}

// HandleHelp returns the usage text. /help shows the same text as /start.
func (b *BotFacade) HandleHelp(ctx context.Context, tgID int64) string {
	return b.TranslatorFor(ctx, tgID).T("start")
}

// HandleCheck runs a single availability check and renders the verdict.
// The returned error is reserved for context cancellation.
func (b *BotFacade) HandleCheck(ctx context.Context, tgID int64, raw string) (string, error) {
	res, err := b.CheckUC.Check(ctx, tgID, raw)
	if err != nil {
		return "", err
	}
	return b.RenderResult(b.TranslatorFor(ctx, tgID), res), nil
}

// HandleLanguage switches the user's reply language and confirms in it.
func (b *BotFacade) HandleLanguage(ctx context.Context, tgID int64, lang string) (string, error) {
	if !b.bundle.Supported(lang) {
		return "", domain.ErrInvalidArgument
	}
	if err := b.UserUC.SetLanguage(ctx, tgID, lang); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	return b.bundle.Pick(lang).T("lang.changed"), nil
}

// LanguageKeyboard builds one row of language buttons for the /lang prompt.
// Each label is rendered in its own language so it stays recognizable.
func (b *BotFacade) LanguageKeyboard() [][]adapter.InlineButton {
	langs := b.bundle.Languages()
	row := make([]adapter.InlineButton, 0, len(langs))
	for _, lang := range langs {
		row = append(row, adapter.InlineButton{
			Text: b.bundle.Pick(lang).T("lang.name." + lang),
			Data: "lang:" + lang,
		})
	}
	return [][]adapter.InlineButton{row}
}

// HandleStats renders the admin statistics summary. Non-admins get a denial.
func (b *BotFacade) HandleStats(ctx context.Context, tgID int64) (string, error) {
	tr := b.TranslatorFor(ctx, tgID)
	if !b.IsAdmin(tgID) {
		return tr.T("stats.denied"), nil
	}
	st, err := b.StatsUC.Totals(ctx)
	if err != nil {
		return "", fmt.Errorf("collect stats: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(tr.T("stats.header"))
	sb.WriteString("\n\n")
	sb.WriteString(tr.T("stats.users", st.Users))
	sb.WriteString("\n")
	sb.WriteString(tr.T("stats.active", st.ActiveUsers))
	sb.WriteString("\n")
	sb.WriteString(tr.T("stats.checks", st.TotalChecks))
	sb.WriteString("\n")
	sb.WriteString(tr.T("stats.checks_24h", st.Checks24h))
	sb.WriteString("\n")
	sb.WriteString(tr.T("stats.reports", st.Reports))
	sb.WriteString("\n\n")
	sb.WriteString(tr.T("stats.by_status"))
	for _, s := range []model.UsernameStatus{model.StatusAvailable, model.StatusTaken, model.StatusUnavailable, model.StatusError} {
		sb.WriteString(fmt.Sprintf("\n  - %s: %d", tr.T("status."+string(s)), st.ByStatus[s]))
	}
	return sb.String(), nil
}

// RenderResult formats one verdict the way the bot replies to a single check.
func (b *BotFacade) RenderResult(tr *i18n.Translator, res *model.CheckResult) string {
	emoji := tr.T("emoji." + string(res.Status))

	var sb strings.Builder
	sb.WriteString(tr.T("result_header", emoji))
	sb.WriteString("\n\n")
	sb.WriteString(tr.T("result_username", res.Username))
	sb.WriteString("\n")
	sb.WriteString(tr.T("result_status", tr.T("status."+string(res.Status))))
	if res.Detail != "" {
		sb.WriteString("\n\n")
		sb.WriteString(tr.T("result_detail", tr.T("detail."+res.Detail)))
	}
	return sb.String()
}

// RenderBulkComplete formats the summary message edited over the progress one.
func (b *BotFacade) RenderBulkComplete(tr *i18n.Translator, rep *model.BulkReport) string {
	return tr.T("bulk_complete", rep.Total, rep.Available, rep.Taken, rep.Unavailable, rep.Errors)
}

// RenderReport formats the plain-text report attached to a bulk reply:
// a totals block followed by one section per verdict, names prefixed with @.
// Unavailable and errored names carry their localized detail.
func (b *BotFacade) RenderReport(tr *i18n.Translator, rep *model.BulkReport) string {
	if rep == nil || rep.Total == 0 {
		return tr.T("report.empty")
	}

	banner := strings.Repeat("═", 40)
	rule := strings.Repeat("─", 40)

	lines := []string{
		banner,
		tr.T("report.title"),
		banner,
		"",
		tr.T("report.total", rep.Total),
		tr.T("report.available", rep.Available),
		tr.T("report.taken", rep.Taken),
		tr.T("report.unavailable", rep.Unavailable),
		tr.T("report.errors", rep.Errors),
		"",
	}

	section := func(titleKey string, results []model.CheckResult, fallbackKey string) {
		if len(results) == 0 {
			return
		}
		lines = append(lines, rule, tr.T(titleKey), rule)
		for i := range results {
			if fallbackKey == "" {
				lines = append(lines, fmt.Sprintf("  • @%s", results[i].Username))
				continue
			}
			detail := tr.T(fallbackKey)
			if results[i].Detail != "" {
				detail = tr.T("detail." + results[i].Detail)
			}
			lines = append(lines, fmt.Sprintf("  • @%s - %s", results[i].Username, detail))
		}
		lines = append(lines, "")
	}

	section("report.section.available", rep.ByStatus(model.StatusAvailable), "")
	section("report.section.taken", rep.ByStatus(model.StatusTaken), "")
	section("report.section.unavailable", rep.ByStatus(model.StatusUnavailable), "fallback.unavailable")
	section("report.section.errors", rep.ByStatus(model.StatusError), "fallback.error")

	lines = append(lines, banner, tr.T("report.end"), banner)
	return strings.Join(lines, "\n")
}

// ReportFilename names the attached report file after the completion time.
func (b *BotFacade) ReportFilename(at time.Time) string {
	return fmt.Sprintf("tiktok_report_%s.txt", at.Format("20060102_150405"))
}

// LocalizeBulkError maps ParseBulkFile failures to user-facing messages.
func (b *BotFacade) LocalizeBulkError(tr *i18n.Translator, err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrBulkEmpty):
		return tr.T("file_empty")
	case errors.Is(err, domain.ErrBulkTooLarge):
		return tr.T("file_too_large", b.bulkMax)
	default:
		return tr.T("file_error")
	}
}
