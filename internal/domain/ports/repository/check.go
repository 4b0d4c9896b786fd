package repository

import (
	"context"
	"time"

	"telegram-tiktok-checker/internal/domain/model"
)

// -----------------------------
// Check history
// -----------------------------

type CheckRepository interface {
	Save(ctx context.Context, tx Tx, rec *model.CheckRecord) error
	// FindLatestByUsername returns the most recent persisted verdict for a
	// canonical username, domain.ErrNotFound when the name was never checked.
	FindLatestByUsername(ctx context.Context, tx Tx, username string) (*model.CheckRecord, error)
	ListRecentByUser(ctx context.Context, tx Tx, tgID int64, limit int) ([]*model.CheckRecord, error)
	CountByStatus(ctx context.Context, tx Tx) (map[model.UsernameStatus]int, error)
	CountSince(ctx context.Context, tx Tx, since time.Time) (int, error)
	// DeleteOlderThan removes history rows checked before cutoff and reports
	// how many rows went away.
	DeleteOlderThan(ctx context.Context, tx Tx, cutoff time.Time) (int64, error)
}
