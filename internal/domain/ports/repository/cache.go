package repository

import (
	"context"

	"telegram-tiktok-checker/internal/domain/model"
)

// -----------------------------
// Verdict cache
// -----------------------------

// VerdictCacheRepository keeps recent verdicts keyed by canonical username.
// Get reports domain.ErrNotFound on a miss. Implementations are free to
// refuse storing error verdicts.
type VerdictCacheRepository interface {
	Store(ctx context.Context, res *model.CheckResult) error
	Get(ctx context.Context, username string) (*model.CheckResult, error)
	Invalidate(ctx context.Context, username string) error
}
