package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"telegram-tiktok-checker/internal/domain"
	"telegram-tiktok-checker/internal/domain/model"
	"telegram-tiktok-checker/internal/domain/ports/adapter"
	"telegram-tiktok-checker/internal/domain/ports/repository"
	"telegram-tiktok-checker/internal/infra/logging"
	"telegram-tiktok-checker/internal/infra/metrics"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// Compile-time check
var _ CheckUseCase = (*checkUC)(nil)

// CheckUseCase runs availability checks and keeps their history.
type CheckUseCase interface {
	// Check verifies one raw username. It always produces a verdict: invalid
	// input and probe failures come back as results, not errors. The error
	// return is reserved for context cancellation.
	Check(ctx context.Context, requestedBy int64, raw string) (*model.CheckResult, error)
	// CheckBulk verifies a parsed list sequentially, paced to stay under
	// TikTok's rate limits. progress, when non-nil, fires every tenth name
	// and once at the end.
	CheckBulk(ctx context.Context, requestedBy int64, usernames []string, progress func(done, total int)) (*model.BulkReport, error)
	// ParseBulkFile extracts usernames from an uploaded text file, one per
	// line, dropping comments, short names and case-insensitive duplicates.
	ParseBulkFile(data []byte) ([]string, error)
	// Latest returns the most recent persisted verdict for a raw username.
	Latest(ctx context.Context, raw string) (*model.CheckRecord, error)
}

type checkUC struct {
	prober  adapter.AvailabilityProber
	checks  repository.CheckRepository
	reports repository.ReportRepository
	cache   repository.VerdictCacheRepository // nil disables caching

	sf       singleflight.Group
	bulkRate float64
	bulkMax  int
	log      *zerolog.Logger
}

func NewCheckUseCase(
	prober adapter.AvailabilityProber,
	checks repository.CheckRepository,
	reports repository.ReportRepository,
	cache repository.VerdictCacheRepository,
	bulkRate float64,
	bulkMax int,
	logger *zerolog.Logger,
) *checkUC {
	return &checkUC{
		prober:   prober,
		checks:   checks,
		reports:  reports,
		cache:    cache,
		bulkRate: bulkRate,
		bulkMax:  bulkMax,
		log:      logger,
	}
}

func (c *checkUC) Check(ctx context.Context, requestedBy int64, raw string) (*model.CheckResult, error) {
	defer logging.TraceDuration(c.log, "CheckUC.Check")()

	name := model.CanonicalUsername(raw)
	if err := model.ValidateUsername(name); err != nil {
		res := &model.CheckResult{
			Username:  name,
			Status:    model.StatusUnavailable,
			Detail:    model.ReasonInvalidFormat,
			Source:    model.SourceNone,
			CheckedAt: time.Now(),
		}
		metrics.IncCheck(string(res.Status), string(res.Source))
		return res, nil
	}

	if c.cache != nil {
		res, err := c.cache.Get(ctx, name)
		switch {
		case err == nil:
			metrics.IncCacheRequest("verdict", "hit")
			metrics.IncCheck(string(res.Status), string(res.Source))
			return res, nil
		case errors.Is(err, domain.ErrNotFound):
			metrics.IncCacheRequest("verdict", "miss")
		default:
			// A broken cache degrades to probing, it never blocks checks.
			metrics.IncCacheRequest("verdict", "error")
			c.log.Warn().Err(err).Str("username", name).Msg("verdict cache get failed")
		}
	}

	// Concurrent requests for the same name share one probe.
	v, err, _ := c.sf.Do(name, func() (interface{}, error) {
		return c.prober.Check(ctx, name)
	})

	now := time.Now()
	var res *model.CheckResult
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		res = c.errorVerdict(name, err, now)
	} else {
		shared := v.(*model.CheckResult)
		cp := *shared
		res = &cp
		if res.CheckedAt.IsZero() {
			res.CheckedAt = now
		}
	}

	c.persist(ctx, requestedBy, res)

	if err == nil && c.cache != nil {
		if cerr := c.cache.Store(ctx, res); cerr != nil {
			c.log.Warn().Err(cerr).Str("username", name).Msg("verdict cache store failed")
		}
	}

	metrics.IncCheck(string(res.Status), string(res.Source))
	return res, nil
}

func (c *checkUC) CheckBulk(ctx context.Context, requestedBy int64, usernames []string, progress func(done, total int)) (*model.BulkReport, error) {
	defer logging.TraceDuration(c.log, "CheckUC.CheckBulk")()

	if len(usernames) == 0 {
		return nil, domain.ErrBulkEmpty
	}

	start := time.Now()
	total := len(usernames)
	c.log.Info().Int("count", total).Int64("tg_id", requestedBy).Msg("bulk check started")

	limiter := rate.NewLimiter(rate.Limit(c.bulkRate), 1)
	results := make([]model.CheckResult, 0, total)

	for i, name := range usernames {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		res, err := c.Check(ctx, requestedBy, name)
		if err != nil {
			return nil, err
		}
		results = append(results, *res)

		done := i + 1
		if done%10 == 0 {
			c.log.Info().Int("done", done).Int("total", total).Msg("bulk progress")
		}
		if progress != nil && (done%10 == 0 || done == total) {
			progress(done, total)
		}
	}

	rep, err := model.NewBulkReport("", requestedBy, results, time.Since(start))
	if err != nil {
		return nil, err
	}
	if err := c.reports.Save(ctx, repository.NoTX, rep); err != nil {
		c.log.Warn().Err(err).Str("report_id", rep.ID).Msg("persist bulk report failed")
	}

	metrics.AddBulkNamesChecked(total)
	c.log.Info().Int("count", rep.Total).Dur("took", rep.Duration).Msg("bulk check finished")
	return rep, nil
}

func (c *checkUC) ParseBulkFile(data []byte) ([]string, error) {
	seen := make(map[string]struct{})
	names := make([]string, 0, 64)

	// Invalid UTF-8 sequences are dropped, not fatal.
	content := strings.ToValidUTF8(string(data), "")
	for _, line := range strings.Split(content, "\n") {
		name := strings.TrimSpace(line)
		if name == "" || strings.HasPrefix(name, "#") {
			continue
		}
		name = strings.TrimSpace(strings.TrimLeft(name, "@"))
		if len(name) < 2 {
			continue
		}
		lower := strings.ToLower(name)
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}
		names = append(names, name)
	}

	if len(names) == 0 {
		return nil, domain.ErrBulkEmpty
	}
	if len(names) > c.bulkMax {
		return nil, fmt.Errorf("%w: %d names, limit %d", domain.ErrBulkTooLarge, len(names), c.bulkMax)
	}
	return names, nil
}

func (c *checkUC) Latest(ctx context.Context, raw string) (*model.CheckRecord, error) {
	name := model.CanonicalUsername(raw)
	if err := model.ValidateUsername(name); err != nil {
		return nil, err
	}
	return c.checks.FindLatestByUsername(ctx, repository.NoTX, name)
}

// errorVerdict turns a probe error into a user-visible result.
func (c *checkUC) errorVerdict(name string, err error, now time.Time) *model.CheckResult {
	reason := model.ReasonProbeFailed
	switch {
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		reason = model.ReasonBreakerOpen
	case errors.Is(err, domain.ErrRateLimited):
		reason = model.ReasonForbidden
	case errors.Is(err, domain.ErrUpstream):
		reason = model.ReasonServerError
	}
	c.log.Warn().Err(err).Str("username", name).Str("reason", reason).Msg("check ended in error verdict")
	return &model.CheckResult{
		Username:  name,
		Status:    model.StatusError,
		Detail:    reason,
		Source:    model.SourceNone,
		CheckedAt: now,
	}
}

func (c *checkUC) persist(ctx context.Context, requestedBy int64, res *model.CheckResult) {
	rec, err := model.NewCheckRecord("", requestedBy, res)
	if err != nil {
		c.log.Error().Err(err).Msg("build check record")
		return
	}
	if err := c.checks.Save(ctx, repository.NoTX, rec); err != nil {
		c.log.Warn().Err(err).Str("username", res.Username).Msg("persist check record failed")
	}
}
