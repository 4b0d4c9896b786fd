//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"telegram-tiktok-checker/internal/domain"
	"telegram-tiktok-checker/internal/domain/model"
)

func mustRecord(t *testing.T, username string, status model.UsernameStatus, tgID int64, checkedAt time.Time) *model.CheckRecord {
	t.Helper()
	rec, err := model.NewCheckRecord("", tgID, &model.CheckResult{
		Username:   username,
		Status:     status,
		Source:     model.SourceAPI,
		HTTPStatus: 200,
		Detail:     "test",
		Latency:    120 * time.Millisecond,
		CheckedAt:  checkedAt,
	})
	if err != nil {
		t.Fatalf("NewCheckRecord failed: %v", err)
	}
	return rec
}

func TestCheckRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	repo := NewCheckRepo(testPool)
	ctx := context.Background()

	t.Run("should save and fetch the latest verdict per username", func(t *testing.T) {
		cleanup(t)

		older := mustRecord(t, "charli", model.StatusTaken, 42, time.Now().Add(-time.Hour))
		newer := mustRecord(t, "charli", model.StatusUnavailable, 42, time.Now())
		if err := repo.Save(ctx, nil, older); err != nil {
			t.Fatalf("Save older failed: %v", err)
		}
		if err := repo.Save(ctx, nil, newer); err != nil {
			t.Fatalf("Save newer failed: %v", err)
		}

		got, err := repo.FindLatestByUsername(ctx, nil, "charli")
		if err != nil {
			t.Fatalf("FindLatestByUsername failed: %v", err)
		}
		if got.ID != newer.ID {
			t.Errorf("expected latest record %s, got %s", newer.ID, got.ID)
		}
		if got.Status != model.StatusUnavailable {
			t.Errorf("expected status unavailable, got %s", got.Status)
		}
		if got.Latency != 120*time.Millisecond {
			t.Errorf("expected latency round-trip of 120ms, got %v", got.Latency)
		}
	})

	t.Run("should map an unseen username to ErrNotFound", func(t *testing.T) {
		cleanup(t)

		_, err := repo.FindLatestByUsername(ctx, nil, "never_checked")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("should list a user's recent checks newest first", func(t *testing.T) {
		cleanup(t)

		for i, name := range []string{"one", "two", "three"} {
			rec := mustRecord(t, name, model.StatusAvailable, 42, time.Now().Add(time.Duration(i)*time.Minute))
			if err := repo.Save(ctx, nil, rec); err != nil {
				t.Fatalf("Save %s failed: %v", name, err)
			}
		}
		// Another user's check must not appear.
		other := mustRecord(t, "foreign", model.StatusTaken, 7, time.Now())
		if err := repo.Save(ctx, nil, other); err != nil {
			t.Fatalf("Save foreign failed: %v", err)
		}

		recent, err := repo.ListRecentByUser(ctx, nil, 42, 2)
		if err != nil {
			t.Fatalf("ListRecentByUser failed: %v", err)
		}
		if len(recent) != 2 {
			t.Fatalf("expected 2 records, got %d", len(recent))
		}
		if recent[0].Username != "three" || recent[1].Username != "two" {
			t.Errorf("expected newest first (three, two), got (%s, %s)", recent[0].Username, recent[1].Username)
		}
	})

	t.Run("should count by status and since a moment", func(t *testing.T) {
		cleanup(t)

		now := time.Now()
		saves := []*model.CheckRecord{
			mustRecord(t, "a", model.StatusAvailable, 1, now.Add(-2*time.Hour)),
			mustRecord(t, "b", model.StatusAvailable, 1, now),
			mustRecord(t, "c", model.StatusTaken, 1, now),
		}
		for _, rec := range saves {
			if err := repo.Save(ctx, nil, rec); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
		}

		byStatus, err := repo.CountByStatus(ctx, nil)
		if err != nil {
			t.Fatalf("CountByStatus failed: %v", err)
		}
		if byStatus[model.StatusAvailable] != 2 || byStatus[model.StatusTaken] != 1 {
			t.Errorf("unexpected tallies: %+v", byStatus)
		}

		since, err := repo.CountSince(ctx, nil, now.Add(-time.Hour))
		if err != nil {
			t.Fatalf("CountSince failed: %v", err)
		}
		if since != 2 {
			t.Errorf("expected 2 checks in the last hour, got %d", since)
		}
	})

	t.Run("should purge old history", func(t *testing.T) {
		cleanup(t)

		old := mustRecord(t, "olduser", model.StatusTaken, 1, time.Now().Add(-100*24*time.Hour))
		fresh := mustRecord(t, "freshuser", model.StatusTaken, 1, time.Now())
		if err := repo.Save(ctx, nil, old); err != nil {
			t.Fatalf("Save old failed: %v", err)
		}
		if err := repo.Save(ctx, nil, fresh); err != nil {
			t.Fatalf("Save fresh failed: %v", err)
		}

		purged, err := repo.DeleteOlderThan(ctx, nil, time.Now().Add(-90*24*time.Hour))
		if err != nil {
			t.Fatalf("DeleteOlderThan failed: %v", err)
		}
		if purged != 1 {
			t.Errorf("expected 1 purged row, got %d", purged)
		}
		if _, err := repo.FindLatestByUsername(ctx, nil, "freshuser"); err != nil {
			t.Errorf("fresh row should survive the purge: %v", err)
		}
	})
}
