package repository

import (
	"context"

	"telegram-tiktok-checker/internal/domain/model"
)

// -----------------------------
// Bulk reports
// -----------------------------

type ReportRepository interface {
	Save(ctx context.Context, tx Tx, rep *model.BulkReport) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.BulkReport, error)
	CountReports(ctx context.Context, tx Tx) (int, error)
}
