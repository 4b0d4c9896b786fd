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

var _ repository.CheckRepository = (*CheckRepo)(nil)

// CheckRepo persists availability checks. Latency is stored in milliseconds.
type CheckRepo struct {
	pool *pgxpool.Pool
}

func NewCheckRepo(pool *pgxpool.Pool) *CheckRepo {
	return &CheckRepo{pool: pool}
}

func (r *CheckRepo) Save(ctx context.Context, tx repository.Tx, rec *model.CheckRecord) error {
	const q = `
INSERT INTO checks (
  id, username, status, source, http_status, detail, latency_ms, requested_by, checked_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9
);
`
	_, err := pickExec(ctx, r.pool, tx, q,
		rec.ID, rec.Username, string(rec.Status), string(rec.Source), rec.HTTPStatus,
		rec.Detail, rec.Latency.Milliseconds(), rec.RequestedBy, rec.CheckedAt)
	return err
}

func (r *CheckRepo) FindLatestByUsername(ctx context.Context, tx repository.Tx, username string) (*model.CheckRecord, error) {
	const q = `
SELECT id, username, status, source, http_status, detail, latency_ms, requested_by, checked_at
  FROM checks WHERE username=$1
  ORDER BY checked_at DESC LIMIT 1;
`
	row, err := pickRow(ctx, r.pool, tx, q, username)
	if err != nil {
		return nil, err
	}
	return scanCheck(row)
}

func (r *CheckRepo) ListRecentByUser(ctx context.Context, tx repository.Tx, tgID int64, limit int) ([]*model.CheckRecord, error) {
	const q = `
SELECT id, username, status, source, http_status, detail, latency_ms, requested_by, checked_at
  FROM checks WHERE requested_by=$1
  ORDER BY checked_at DESC LIMIT $2;
`
	rows, err := pickQuery(ctx, r.pool, tx, q, tgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.CheckRecord
	for rows.Next() {
		rec, err := scanCheck(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *CheckRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.UsernameStatus]int, error) {
	rows, err := pickQuery(ctx, r.pool, tx, `SELECT status, COUNT(*) FROM checks GROUP BY status;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[model.UsernameStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[model.UsernameStatus(status)] = n
	}
	return out, rows.Err()
}

func (r *CheckRepo) CountSince(ctx context.Context, tx repository.Tx, since time.Time) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM checks WHERE checked_at >= $1;`, since)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count checks: %w", err)
	}
	return n, nil
}

func (r *CheckRepo) DeleteOlderThan(ctx context.Context, tx repository.Tx, cutoff time.Time) (int64, error) {
	tag, err := pickExec(ctx, r.pool, tx, `DELETE FROM checks WHERE checked_at < $1;`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge checks: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanCheck(row pgx.Row) (*model.CheckRecord, error) {
	var rec model.CheckRecord
	var status, source string
	var latencyMS int64
	if err := row.Scan(&rec.ID, &rec.Username, &status, &source, &rec.HTTPStatus,
		&rec.Detail, &latencyMS, &rec.RequestedBy, &rec.CheckedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	rec.Status = model.UsernameStatus(status)
	rec.Source = model.CheckSource(source)
	rec.Latency = time.Duration(latencyMS) * time.Millisecond
	return &rec, nil
}
