package usecase

import (
	"context"
	"time"

	"telegram-tiktok-checker/internal/domain/model"
	"telegram-tiktok-checker/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

// Stats is the aggregate snapshot served to the admin /stats command and
// the admin API.
type Stats struct {
	Users       int                          `json:"users"`
	ActiveUsers int                          `json:"active_users"`
	TotalChecks int                          `json:"total_checks"`
	Checks24h   int                          `json:"checks_24h"`
	ByStatus    map[model.UsernameStatus]int `json:"by_status"`
	Reports     int                          `json:"reports"`
	GeneratedAt time.Time                    `json:"generated_at"`
}

type StatsUseCase interface {
	Totals(ctx context.Context) (*Stats, error)
}

type statsUC struct {
	users   repository.UserRepository
	checks  repository.CheckRepository
	reports repository.ReportRepository

	log *zerolog.Logger
}

func NewStatsUseCase(users repository.UserRepository, checks repository.CheckRepository, reports repository.ReportRepository, logger *zerolog.Logger) *statsUC {
	return &statsUC{users: users, checks: checks, reports: reports, log: logger}
}

func (s *statsUC) Totals(ctx context.Context) (*Stats, error) {
	now := time.Now()

	users, err := s.users.CountUsers(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	active, err := s.users.CountActiveSince(ctx, repository.NoTX, now.AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}
	byStatus, err := s.checks.CountByStatus(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, n := range byStatus {
		total += n
	}
	last24h, err := s.checks.CountSince(ctx, repository.NoTX, now.Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}
	reports, err := s.reports.CountReports(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}

	return &Stats{
		Users:       users,
		ActiveUsers: active,
		TotalChecks: total,
		Checks24h:   last24h,
		ByStatus:    byStatus,
		Reports:     reports,
		GeneratedAt: now,
	}, nil
}
