// File: internal/infra/worker/bulk_processor.go
package worker

import (
	"context"
	"time"

	"telegram-tiktok-checker/internal/application"
	"telegram-tiktok-checker/internal/domain/ports/adapter"
	"telegram-tiktok-checker/internal/infra/adapters/telegram"
	"telegram-tiktok-checker/internal/infra/metrics"
	red "telegram-tiktok-checker/internal/infra/redis"

	"github.com/rs/zerolog"
)

// bulkLockTTL bounds how long a crashed run can keep a user locked out.
const bulkLockTTL = 30 * time.Minute

// BulkProcessor runs accepted bulk jobs on the shared worker pool. The
// Telegram adapter hands jobs over through the BulkSubmitter interface.
type BulkProcessor struct {
	pool   *Pool
	facade *application.BotFacade
	bot    adapter.TelegramBotAdapter
	locker red.Locker
	log    *zerolog.Logger
}

var _ telegram.BulkSubmitter = (*BulkProcessor)(nil)

func NewBulkProcessor(
	pool *Pool,
	facade *application.BotFacade,
	bot adapter.TelegramBotAdapter,
	locker red.Locker,
	logger *zerolog.Logger,
) *BulkProcessor {
	procLog := logger.With().Str("component", "BulkProcessor").Logger()
	return &BulkProcessor{pool: pool, facade: facade, bot: bot, locker: locker, log: &procLog}
}

// Submit acquires the per-user lock and queues the job. The lock is taken
// here, not inside the task, so a second upload fails fast with
// domain.ErrBulkActive instead of queueing behind the first run.
func (p *BulkProcessor) Submit(ctx context.Context, job telegram.BulkJob) error {
	key := red.BulkLockKey(job.RequestedBy)
	token, err := p.locker.TryLock(ctx, key, bulkLockTTL)
	if err != nil {
		return err
	}
	task := func(ctx context.Context) error {
		defer func() {
			// Background context so shutdown does not leak the lock.
			if err := p.locker.Unlock(context.Background(), key, token); err != nil {
				p.log.Warn().Err(err).Int64("tg_id", job.RequestedBy).Msg("bulk lock release failed")
			}
		}()
		return p.run(ctx, job)
	}
	if err := p.pool.Submit(task); err != nil {
		_ = p.locker.Unlock(ctx, key, token)
		return err
	}
	return nil
}

func (p *BulkProcessor) run(ctx context.Context, job telegram.BulkJob) error {
	start := time.Now()
	tr := p.facade.TranslatorFor(ctx, job.RequestedBy)
	p.log.Info().Int64("tg_id", job.RequestedBy).Int("count", len(job.Usernames)).Msg("bulk job started")

	progress := func(done, total int) {
		if done >= total {
			return // the summary edit below covers the final state
		}
		if err := p.bot.EditMessage(ctx, job.ChatID, job.StatusMessageID, tr.T("bulk_progress", done, total)); err != nil {
			p.log.Warn().Err(err).Int64("tg_id", job.RequestedBy).Msg("progress edit failed")
		}
	}

	rep, err := p.facade.CheckUC.CheckBulk(ctx, job.RequestedBy, job.Usernames, progress)
	if err != nil {
		metrics.IncBulkJob("failed")
		p.log.Error().Err(err).Int64("tg_id", job.RequestedBy).Msg("bulk job failed")
		_ = p.bot.EditMessage(ctx, job.ChatID, job.StatusMessageID, tr.T("error"))
		return err
	}

	summary := p.facade.RenderBulkComplete(tr, rep)
	if err := p.bot.EditMessage(ctx, job.ChatID, job.StatusMessageID, summary); err != nil {
		// The status message may be gone, fall back to a fresh one.
		if _, serr := p.bot.SendMessage(ctx, job.ChatID, summary); serr != nil {
			p.log.Error().Err(serr).Int64("tg_id", job.RequestedBy).Msg("bulk summary delivery failed")
		}
	}

	report := p.facade.RenderReport(tr, rep)
	if err := p.bot.SendDocument(ctx, job.ChatID, p.facade.ReportFilename(time.Now()), []byte(report), tr.T("report_caption")); err != nil {
		p.log.Error().Err(err).Int64("tg_id", job.RequestedBy).Msg("report upload failed")
	}

	metrics.IncBulkJob("completed")
	p.log.Info().Int64("tg_id", job.RequestedBy).Int("count", rep.Total).Dur("took", time.Since(start)).Msg("bulk job finished")
	return nil
}
