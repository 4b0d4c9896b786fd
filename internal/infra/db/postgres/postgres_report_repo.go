package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-tiktok-checker/internal/domain"
	"telegram-tiktok-checker/internal/domain/model"
	"telegram-tiktok-checker/internal/domain/ports/repository"
)

var _ repository.ReportRepository = (*ReportRepo)(nil)

// ReportRepo persists bulk run summaries. Individual verdicts live in the
// checks table; a loaded report carries tallies only.
type ReportRepo struct {
	pool *pgxpool.Pool
}

func NewReportRepo(pool *pgxpool.Pool) *ReportRepo {
	return &ReportRepo{pool: pool}
}

func (r *ReportRepo) Save(ctx context.Context, tx repository.Tx, rep *model.BulkReport) error {
	const q = `
INSERT INTO reports (
  id, requested_by, total, available, taken, unavailable, errors, duration_ms, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9
);
`
	_, err := pickExec(ctx, r.pool, tx, q,
		rep.ID, rep.RequestedBy, rep.Total, rep.Available, rep.Taken, rep.Unavailable,
		rep.Errors, rep.Duration.Milliseconds(), rep.CreatedAt)
	return err
}

func (r *ReportRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.BulkReport, error) {
	const q = `
SELECT id, requested_by, total, available, taken, unavailable, errors, duration_ms, created_at
  FROM reports WHERE id=$1;
`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	var rep model.BulkReport
	var durationMS int64
	if err := row.Scan(&rep.ID, &rep.RequestedBy, &rep.Total, &rep.Available, &rep.Taken,
		&rep.Unavailable, &rep.Errors, &durationMS, &rep.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	rep.Duration = time.Duration(durationMS) * time.Millisecond
	return &rep, nil
}

func (r *ReportRepo) CountReports(ctx context.Context, tx repository.Tx) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM reports;`)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count reports: %w", err)
	}
	return n, nil
}
