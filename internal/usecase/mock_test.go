//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-tiktok-checker/internal/domain"
	"telegram-tiktok-checker/internal/domain/model"
	"telegram-tiktok-checker/internal/domain/ports/adapter"
	"telegram-tiktok-checker/internal/domain/ports/repository"
)

// =============================
// Adapters
// =============================

// ---- Mock AvailabilityProber ----

type MockProber struct {
	mu    sync.Mutex
	calls []string

	CheckFunc func(ctx context.Context, username string) (*model.CheckResult, error)
}

var _ adapter.AvailabilityProber = (*MockProber)(nil)

func (m *MockProber) Check(ctx context.Context, username string) (*model.CheckResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, username)
	m.mu.Unlock()
	if m.CheckFunc != nil {
		return m.CheckFunc(ctx, username)
	}
	return &model.CheckResult{
		Username:  username,
		Status:    model.StatusAvailable,
		Detail:    model.ReasonProfileNotFound,
		Source:    model.SourceHTML,
		CheckedAt: time.Now(),
	}, nil
}

func (m *MockProber) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// =============================
// Repositories
// =============================

// ---- Mock UserRepository ----

type MockUserRepo struct {
	mu   sync.Mutex
	byID map[string]*model.User
	byTG map[int64]*model.User

	SaveFunc             func(ctx context.Context, tx repository.Tx, u *model.User) error
	FindByTelegramIDFunc func(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error)
	FindByIDFunc         func(ctx context.Context, tx repository.Tx, id string) (*model.User, error)
	CountUsersFunc       func(ctx context.Context, tx repository.Tx) (int, error)
	CountActiveFunc      func(ctx context.Context, tx repository.Tx, since time.Time) (int, error)
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{byID: map[string]*model.User{}, byTG: map[int64]*model.User{}}
}

func (r *MockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, u)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	r.byID[cp.ID] = &cp
	r.byTG[cp.TelegramID] = &cp
	return nil
}

func (r *MockUserRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	if r.FindByTelegramIDFunc != nil {
		return r.FindByTelegramIDFunc(ctx, tx, tgID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byTG[tgID]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	if r.FindByIDFunc != nil {
		return r.FindByIDFunc(ctx, tx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	if r.CountUsersFunc != nil {
		return r.CountUsersFunc(ctx, tx)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID), nil
}

func (r *MockUserRepo) CountActiveSince(ctx context.Context, tx repository.Tx, since time.Time) (int, error) {
	if r.CountActiveFunc != nil {
		return r.CountActiveFunc(ctx, tx, since)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, u := range r.byID {
		if u.LastActiveAt.After(since) {
			n++
		}
	}
	return n, nil
}

// ---- Mock CheckRepository ----

type MockCheckRepo struct {
	mu      sync.Mutex
	records []*model.CheckRecord

	SaveFunc       func(ctx context.Context, tx repository.Tx, rec *model.CheckRecord) error
	FindLatestFunc func(ctx context.Context, tx repository.Tx, username string) (*model.CheckRecord, error)
	CountByFunc    func(ctx context.Context, tx repository.Tx) (map[model.UsernameStatus]int, error)
	CountSinceFunc func(ctx context.Context, tx repository.Tx, since time.Time) (int, error)
}

var _ repository.CheckRepository = (*MockCheckRepo)(nil)

func NewMockCheckRepo() *MockCheckRepo {
	return &MockCheckRepo{}
}

func (r *MockCheckRepo) Save(ctx context.Context, tx repository.Tx, rec *model.CheckRecord) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, rec)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.records = append(r.records, &cp)
	return nil
}

func (r *MockCheckRepo) FindLatestByUsername(ctx context.Context, tx repository.Tx, username string) (*model.CheckRecord, error) {
	if r.FindLatestFunc != nil {
		return r.FindLatestFunc(ctx, tx, username)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.records) - 1; i >= 0; i-- {
		if strings.EqualFold(r.records[i].Username, username) {
			cp := *r.records[i]
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockCheckRepo) ListRecentByUser(ctx context.Context, tx repository.Tx, tgID int64, limit int) ([]*model.CheckRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.CheckRecord, 0, limit)
	for i := len(r.records) - 1; i >= 0 && len(out) < limit; i-- {
		if r.records[i].RequestedBy == tgID {
			cp := *r.records[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MockCheckRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.UsernameStatus]int, error) {
	if r.CountByFunc != nil {
		return r.CountByFunc(ctx, tx)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[model.UsernameStatus]int{}
	for _, rec := range r.records {
		out[rec.Status]++
	}
	return out, nil
}

func (r *MockCheckRepo) CountSince(ctx context.Context, tx repository.Tx, since time.Time) (int, error) {
	if r.CountSinceFunc != nil {
		return r.CountSinceFunc(ctx, tx, since)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rec := range r.records {
		if rec.CheckedAt.After(since) {
			n++
		}
	}
	return n, nil
}

func (r *MockCheckRepo) DeleteOlderThan(ctx context.Context, tx repository.Tx, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.records[:0]
	var purged int64
	for _, rec := range r.records {
		if rec.CheckedAt.Before(cutoff) {
			purged++
			continue
		}
		kept = append(kept, rec)
	}
	r.records = kept
	return purged, nil
}

// Saved returns a snapshot of everything stored so far.
func (r *MockCheckRepo) Saved() []*model.CheckRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*model.CheckRecord(nil), r.records...)
}

// ---- Mock ReportRepository ----

type MockReportRepo struct {
	mu   sync.Mutex
	data map[string]*model.BulkReport

	SaveFunc func(ctx context.Context, tx repository.Tx, rep *model.BulkReport) error
}

var _ repository.ReportRepository = (*MockReportRepo)(nil)

func NewMockReportRepo() *MockReportRepo {
	return &MockReportRepo{data: map[string]*model.BulkReport{}}
}

func (r *MockReportRepo) Save(ctx context.Context, tx repository.Tx, rep *model.BulkReport) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, rep)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rep
	r.data[cp.ID] = &cp
	return nil
}

func (r *MockReportRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.BulkReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rep, ok := r.data[id]; ok {
		cp := *rep
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockReportRepo) CountReports(ctx context.Context, tx repository.Tx) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data), nil
}

// ---- Mock VerdictCacheRepository ----

type MockVerdictCache struct {
	mu   sync.Mutex
	data map[string]*model.CheckResult

	StoreFunc func(ctx context.Context, res *model.CheckResult) error
	GetFunc   func(ctx context.Context, username string) (*model.CheckResult, error)
}

var _ repository.VerdictCacheRepository = (*MockVerdictCache)(nil)

func NewMockVerdictCache() *MockVerdictCache {
	return &MockVerdictCache{data: map[string]*model.CheckResult{}}
}

func (c *MockVerdictCache) Store(ctx context.Context, res *model.CheckResult) error {
	if c.StoreFunc != nil {
		return c.StoreFunc(ctx, res)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *res
	c.data[strings.ToLower(res.Username)] = &cp
	return nil
}

func (c *MockVerdictCache) Get(ctx context.Context, username string) (*model.CheckResult, error) {
	if c.GetFunc != nil {
		return c.GetFunc(ctx, username)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if res, ok := c.data[strings.ToLower(username)]; ok {
		cp := *res
		cp.Source = model.SourceCache
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (c *MockVerdictCache) Invalidate(ctx context.Context, username string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, strings.ToLower(username))
	return nil
}

// Len reports how many verdicts are cached.
func (c *MockVerdictCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// =============================
// Infra helpers for tests
// =============================

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs the function immediately without a real transaction. Assign
// WithTxFunc to verify transactional behavior in a specific test.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
// It writes to io.Discard to prevent logs from cluttering test output.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}
