package telegram

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"telegram-tiktok-checker/internal/application"
	"telegram-tiktok-checker/internal/config"
	"telegram-tiktok-checker/internal/domain/ports/adapter"
	"telegram-tiktok-checker/internal/infra/logging"
	"telegram-tiktok-checker/internal/infra/metrics"
	red "telegram-tiktok-checker/internal/infra/redis"
)

// Telegram rejects messages above 4096 characters.
const maxMessageLen = 4096

// Uploaded username lists are small, anything bigger is not a name list.
const maxUploadBytes = 1 << 20

const (
	messageRateLimit  = 20 // messages per user per minute
	callbackRateLimit = 30 // callbacks per user per minute
)

// BulkJob describes one accepted file upload headed for the background pool.
type BulkJob struct {
	ChatID          int64
	RequestedBy     int64
	StatusMessageID int
	Usernames       []string
}

// BulkSubmitter hands accepted bulk jobs off for asynchronous processing.
// Submit reports domain.ErrBulkActive when the user already has a run going.
type BulkSubmitter interface {
	Submit(ctx context.Context, job BulkJob) error
}

var _ adapter.TelegramBotAdapter = (*RealTelegramBotAdapter)(nil)

// RealTelegramBotAdapter polls Telegram for updates and delegates to BotFacade.
type RealTelegramBotAdapter struct {
	bot     *tgbotapi.BotAPI
	cfg     *config.BotConfig
	facade  *application.BotFacade
	limiter *red.RateLimiter
	bulk    BulkSubmitter
	files   *http.Client
	log     *zerolog.Logger

	updateWorkers int
	cancelPolling context.CancelFunc
}

func NewRealTelegramBotAdapter(cfg *config.BotConfig, facade *application.BotFacade, limiter *red.RateLimiter, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	if facade == nil {
		return nil, errors.New("bot facade is nil")
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 5
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	botLog := logger.With().Str("component", "TelegramBot").Logger()

	return &RealTelegramBotAdapter{
		bot:           bot,
		cfg:           cfg,
		facade:        facade,
		limiter:       limiter,
		files:         &http.Client{Timeout: 30 * time.Second},
		log:           &botLog,
		updateWorkers: workers,
	}, nil
}

// SetBulkSubmitter attaches the background pool. The bot and the bulk
// processor reference each other, so one side is wired after construction.
func (r *RealTelegramBotAdapter) SetBulkSubmitter(bs BulkSubmitter) { r.bulk = bs }

// StartPolling blocks reading updates until ctx is cancelled.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	// Long polling conflicts with a leftover webhook, drop it first.
	if _, err := r.bot.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: true}); err != nil {
		r.log.Warn().Err(err).Msg("delete webhook failed")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	r.log.Info().Str("bot", r.bot.Self.UserName).Int("workers", r.updateWorkers).Msg("bot polling started")

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < r.updateWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case up := <-updateChan:
					if err := r.handleUpdate(ctx, up); err != nil {
						r.log.Error().Err(err).Int("worker", id).Msg("update handling failed")
					}
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			r.bot.StopReceivingUpdates()
			wg.Wait()
			r.log.Info().Msg("bot polling stopped")
			return ctx.Err()
		case up := <-updates:
			select {
			case updateChan <- up:
			case <-ctx.Done():
			}
		}
	}
}

func (r *RealTelegramBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	// One trace id per update so logs from a handler chain correlate.
	ctx = logging.WithTraceID(ctx, ulid.Make().String())

	if q := update.CallbackQuery; q != nil {
		metrics.IncTelegramUpdate("callback")
		if q.From != nil {
			ctx = logging.WithTgID(ctx, q.From.ID)
		}
		return r.handleQuery(ctx, q)
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return nil
	}
	ctx = logging.WithTgID(ctx, msg.From.ID)

	switch {
	case msg.IsCommand():
		metrics.IncTelegramUpdate("command")
		return r.dispatchCommand(ctx, msg)
	case msg.Document != nil:
		metrics.IncTelegramUpdate("document")
		return r.handleDocument(ctx, msg)
	case msg.Text != "":
		metrics.IncTelegramUpdate("text")
		return r.handleText(ctx, msg)
	}
	return nil
}

// allow applies the per-user fixed-window limit. A broken limiter fails open.
func (r *RealTelegramBotAdapter) allow(ctx context.Context, chatID, tgID int64, kind string, limit int) bool {
	if r.limiter == nil {
		return true
	}
	ok, err := r.limiter.Allow(ctx, red.UserCommandKey(tgID, kind), limit, time.Minute)
	if err != nil {
		r.log.Warn().Err(err).Msg("rate limiter unavailable")
		return true
	}
	if !ok {
		metrics.IncRateLimitTriggered()
		tr := r.facade.TranslatorFor(ctx, tgID)
		_, _ = r.SendMessage(ctx, chatID, tr.T("rate_limited"))
	}
	return ok
}

// -----------------------------
// adapter.TelegramBotAdapter
// -----------------------------

// SendMessage sends HTML-formatted text, splitting it when Telegram's length
// cap requires. It returns the id of the last sent chunk.
func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var lastID int
	for _, chunk := range splitMessage(text) {
		msg := tgbotapi.NewMessage(chatID, chunk)
		msg.ParseMode = tgbotapi.ModeHTML
		sent, err := r.bot.Send(msg)
		if err != nil {
			metrics.IncTelegramSendFailure()
			return 0, err
		}
		lastID = sent.MessageID
	}
	return lastID, nil
}

func (r *RealTelegramBotAdapter) EditMessage(ctx context.Context, chatID int64, messageID int, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := r.bot.Send(edit); err != nil {
		metrics.IncTelegramSendFailure()
		return err
	}
	return nil
}

// SendButtons sends a message with an inline keyboard. URL buttons open a
// link, the rest send callback data.
func (r *RealTelegramBotAdapter) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		kbRow := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			switch {
			case btn.URL != "":
				kbRow = append(kbRow, tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL))
			case btn.Data != "":
				kbRow = append(kbRow, tgbotapi.NewInlineKeyboardButtonData(label, btn.Data))
			default:
				kbRow = append(kbRow, tgbotapi.NewInlineKeyboardButtonData(label, label))
			}
		}
		kbRows = append(kbRows, kbRow)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(kbRows...)
	if _, err := r.bot.Send(msg); err != nil {
		metrics.IncTelegramSendFailure()
		return err
	}
	return nil
}

func (r *RealTelegramBotAdapter) SendDocument(ctx context.Context, chatID int64, filename string, data []byte, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: filename, Bytes: data})
	doc.Caption = caption
	if _, err := r.bot.Send(doc); err != nil {
		metrics.IncTelegramSendFailure()
		return err
	}
	return nil
}

// downloadFile fetches an uploaded document through the Bot API file endpoint.
func (r *RealTelegramBotAdapter) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	url, err := r.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.files.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("file download failed: " + resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxUploadBytes))
}

// splitMessage cuts text into Telegram-sized chunks, preferring newline
// boundaries near the cap.
func splitMessage(text string) []string {
	runes := []rune(text)
	if len(runes) <= maxMessageLen {
		return []string{text}
	}
	parts := make([]string, 0, len(runes)/maxMessageLen+1)
	for len(runes) > 0 {
		n := maxMessageLen
		if n >= len(runes) {
			parts = append(parts, string(runes))
			break
		}
		cut := n
		for i := n - 1; i > n-200 && i > 0; i-- {
			if runes[i] == '\n' {
				cut = i + 1
				break
			}
		}
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	return parts
}
