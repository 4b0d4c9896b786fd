//go:build !integration

package web

import (
	"context"
	"errors"
	"strings"
	"time"

	"telegram-tiktok-checker/internal/domain"
	"telegram-tiktok-checker/internal/domain/model"
	"telegram-tiktok-checker/internal/usecase"

	"github.com/rs/zerolog"
)

var errTest = errors.New("boom")

// --- Mock use cases (the admin API consumes use cases, not repositories) ---

type mockStatsUC struct {
	stats *usecase.Stats
	err   error
}

func (m *mockStatsUC) Totals(ctx context.Context) (*usecase.Stats, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.stats != nil {
		return m.stats, nil
	}
	return &usecase.Stats{
		Users:       3,
		ActiveUsers: 2,
		TotalChecks: 10,
		Checks24h:   4,
		ByStatus:    map[model.UsernameStatus]int{model.StatusAvailable: 6, model.StatusTaken: 4},
		Reports:     1,
		GeneratedAt: time.Now(),
	}, nil
}

type mockCheckUC struct {
	latest   map[string]*model.CheckRecord
	checkErr error
	checked  []string
}

func newMockCheckUC() *mockCheckUC {
	return &mockCheckUC{latest: map[string]*model.CheckRecord{}}
}

func (m *mockCheckUC) Check(ctx context.Context, requestedBy int64, raw string) (*model.CheckResult, error) {
	if m.checkErr != nil {
		return nil, m.checkErr
	}
	name := model.CanonicalUsername(raw)
	m.checked = append(m.checked, name)
	return &model.CheckResult{
		Username:  name,
		Status:    model.StatusAvailable,
		Detail:    model.ReasonProfileNotFound,
		Source:    model.SourceHTML,
		Latency:   120 * time.Millisecond,
		CheckedAt: time.Now(),
	}, nil
}

func (m *mockCheckUC) CheckBulk(ctx context.Context, requestedBy int64, usernames []string, progress func(done, total int)) (*model.BulkReport, error) {
	return nil, domain.ErrInvalidArgument
}

func (m *mockCheckUC) ParseBulkFile(data []byte) ([]string, error) {
	return nil, domain.ErrInvalidArgument
}

func (m *mockCheckUC) Latest(ctx context.Context, raw string) (*model.CheckRecord, error) {
	name := model.CanonicalUsername(raw)
	if name == "" || strings.Contains(name, " ") {
		return nil, domain.ErrInvalidUsername
	}
	rec, ok := m.latest[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

// --- Fake store pings for the health endpoint ---

type fakePinger struct{ err error }

func (p *fakePinger) Ping(ctx context.Context) error { return p.err }

// newTestLogger creates a silent logger for tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}
