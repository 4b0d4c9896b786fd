//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"telegram-tiktok-checker/internal/domain"
	"telegram-tiktok-checker/internal/domain/model"
	"telegram-tiktok-checker/internal/domain/ports/repository"
	"telegram-tiktok-checker/internal/usecase"
)

func TestUserUseCase_RegisterOrFetch(t *testing.T) {
	ctx := context.Background()
	testLogger := newTestLogger()

	t.Run("should fetch an existing user and refresh username and activity", func(t *testing.T) {
		users := NewMockUserRepo()
		uc := usecase.NewUserUseCase(users, NewMockTxManager(), testLogger)

		original := &model.User{
			ID:           "user-123",
			TelegramID:   12345,
			Username:     "old_username",
			LastActiveAt: time.Now().Add(-1 * time.Hour),
		}
		users.Save(ctx, nil, original)

		got, err := uc.RegisterOrFetch(ctx, 12345, "new_username")
		if err != nil {
			t.Fatalf("RegisterOrFetch failed: %v", err)
		}
		if got.ID != "user-123" {
			t.Errorf("expected the existing user, got id %q", got.ID)
		}

		updated, _ := users.FindByID(ctx, nil, "user-123")
		if updated.Username != "new_username" {
			t.Errorf("expected username 'new_username', got %q", updated.Username)
		}
		if !updated.LastActiveAt.After(original.LastActiveAt) {
			t.Errorf("expected LastActiveAt to move forward, got %v", updated.LastActiveAt)
		}
	})

	t.Run("should register a new user if not found", func(t *testing.T) {
		users := NewMockUserRepo()
		uc := usecase.NewUserUseCase(users, NewMockTxManager(), testLogger)

		got, err := uc.RegisterOrFetch(ctx, 54321, "new_user")
		if err != nil {
			t.Fatalf("RegisterOrFetch failed: %v", err)
		}
		if got == nil || got.ID == "" {
			t.Fatal("expected a persisted user with an id")
		}
		if got.TelegramID != 54321 || got.Username != "new_user" {
			t.Errorf("unexpected user: %+v", got)
		}

		if n, _ := users.CountUsers(ctx, nil); n != 1 {
			t.Errorf("expected 1 stored user, got %d", n)
		}
	})

	t.Run("should surface repository failures", func(t *testing.T) {
		users := NewMockUserRepo()
		users.FindByTelegramIDFunc = func(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
			return nil, errors.New("connection reset")
		}
		uc := usecase.NewUserUseCase(users, NewMockTxManager(), testLogger)

		if _, err := uc.RegisterOrFetch(ctx, 99, "whoever"); err == nil {
			t.Fatal("expected the lookup error to propagate")
		}
	})
}

func TestUserUseCase_SetLanguage(t *testing.T) {
	ctx := context.Background()
	testLogger := newTestLogger()

	t.Run("should persist the chosen language", func(t *testing.T) {
		users := NewMockUserRepo()
		uc := usecase.NewUserUseCase(users, NewMockTxManager(), testLogger)

		seed, _ := model.NewUser("", 777, "polyglot")
		users.Save(ctx, nil, seed)

		if err := uc.SetLanguage(ctx, 777, "en"); err != nil {
			t.Fatalf("SetLanguage failed: %v", err)
		}
		got, err := uc.GetByTelegramID(ctx, 777)
		if err != nil {
			t.Fatalf("GetByTelegramID failed: %v", err)
		}
		if got.Language != "en" {
			t.Errorf("expected language 'en', got %q", got.Language)
		}
	})

	t.Run("should fail for unknown users", func(t *testing.T) {
		uc := usecase.NewUserUseCase(NewMockUserRepo(), NewMockTxManager(), testLogger)
		if err := uc.SetLanguage(ctx, 31337, "ru"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
